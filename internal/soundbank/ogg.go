package soundbank

import (
	"bytes"
	"errors"
)

// oggPageStart is the capture pattern, stream version, header type and the
// zero granule position that begin the first page of every Ogg stream.
var oggPageStart = []byte{'O', 'g', 'g', 'S', 0x00, 0x02, 0, 0, 0, 0, 0, 0, 0, 0}

// oggScanLen bounds the search for the start of the page payload.
const oggScanLen = 16

// repairOggHeader restores the page header of Ogg files whose first bytes
// were mangled when packed into a GPK archive. The payload is taken to
// resume at the first pair of non-zero bytes that follows a zero byte.
func repairOggHeader(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, oggPageStart) {
		return data, nil
	}
	if len(data) < oggScanLen {
		return nil, errors.New("not enough data to repair Ogg header")
	}

	zeros := 0
	for i := 0; i < oggScanLen; i++ {
		b := data[i]
		if b == 'O' || b == 'g' || b == 'S' {
			continue
		}
		if b == 0 {
			if zeros++; zeros > 9 {
				return nil, errors.New("too many zeros in Ogg header")
			}
			continue
		}
		if i > 2 && data[i-1] != 0 && data[i-2] == 0 {
			fixed := make([]byte, 0, len(oggPageStart)+len(data)-(i-1))
			fixed = append(fixed, oggPageStart...)
			return append(fixed, data[i-1:]...), nil
		}
	}
	return nil, errors.New("no Ogg payload found in header")
}
