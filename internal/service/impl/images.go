package impl

import (
	"encoding/base64"
	"net/http"
	"strings"

	"talks/internal/domain"
)

var imageExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// decodeImage accepts "data:<mime>;base64,<payload>" or bare base64 and
// returns the bytes with a sniffed image content type.
func decodeImage(s string) ([]byte, string, error) {
	payload := s
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 || !strings.HasSuffix(s[:comma], ";base64") {
			return nil, "", domain.ErrInvalidImage
		}
		payload = s[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil || len(data) == 0 {
		return nil, "", domain.ErrInvalidImage
	}

	ct := http.DetectContentType(data)
	if _, ok := imageExt[ct]; !ok {
		return nil, "", domain.ErrInvalidImage
	}
	return data, ct, nil
}

func isRemoteURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
