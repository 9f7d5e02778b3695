package reconciliation

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AttachmentStore holds receipt vouchers.
// Implemented by the infrastructure layer (S3-compatible stores or the stub).
type AttachmentStore interface {
	// Upload writes the object under key
	Upload(ctx context.Context, key string, data []byte, contentType string) error

	// PresignPreview returns a short-lived URL for viewing the object and its expiry
	PresignPreview(ctx context.Context, key string) (string, time.Time, error)

	// Exists reports whether an object is stored under key
	Exists(ctx context.Context, key string) (bool, error)
}

// AttachmentUpload is a voucher file submitted with a receipt
type AttachmentUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// AttachmentKeyPrefix is the key namespace of all receipt vouchers
const AttachmentKeyPrefix = "receipts/"

// attachmentKey builds receipts/<receipt id>/<random>-<file name>
func attachmentKey(receiptID uuid.UUID, fileName string) string {
	return fmt.Sprintf("%s%s/%s-%s", AttachmentKeyPrefix, receiptID, uuid.NewString()[:8], sanitizeFileName(fileName))
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." || name == ".." || name == "_" {
		return "attachment"
	}
	return name
}

// IsAttachmentKey reports whether key belongs to the receipt voucher namespace
func IsAttachmentKey(key string) bool {
	return strings.HasPrefix(key, AttachmentKeyPrefix) && !strings.Contains(key, "..")
}
