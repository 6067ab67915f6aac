package dkim

import (
	"bufio"
	"io"
)

// WriteSigned signs msg and writes it to w with the DKIM-Signature header
// first, followed by every header line whose name is not in ignore, an
// empty line and the body.
//
// Nothing is written when signing fails.
func WriteSigned(w io.Writer, s *Signer, msg *RawMessage, ignore ...string) error {
	header, err := s.Sign(msg)
	if err != nil {
		return err
	}

	body, err := msg.Body()
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)

	bw.WriteString(header)
	bw.WriteString(crlf)

	for _, line := range msg.NonMatchingHeaderLines(ignore) {
		bw.WriteString(line)
		bw.WriteString(crlf)
	}

	bw.WriteString(crlf)
	bw.Write(body)

	return bw.Flush()
}
