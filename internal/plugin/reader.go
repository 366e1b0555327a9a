package plugin

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// ReadMessage reads one message from r. The whole stream is read at once; if that fails, the
// text read so far is kept and reading continues line by line until the accumulated text is
// valid JSON or the stream ends. Each line is trimmed before it is appended.
func ReadMessage(r io.Reader) (string, error) {
	br := bufio.NewReader(r)
	data, err := io.ReadAll(br)
	if err == nil {
		return strings.TrimSpace(string(data)), nil
	}

	var acc strings.Builder
	acc.WriteString(strings.TrimSpace(string(data)))
	for {
		line, lerr := br.ReadString('\n')
		acc.WriteString(strings.TrimSpace(line))
		if json.Valid([]byte(acc.String())) {
			return acc.String(), nil
		}
		if errors.Is(lerr, io.EOF) {
			return acc.String(), nil
		}
		if lerr != nil {
			return "", lerr
		}
	}
}
