package domain

// Attachment field names understood by image model variants.
const (
	FieldImageURL  = "image_url"
	FieldImage     = "image"
	FieldImageURLs = "image_urls"
)

// AllAttachmentFields is used for models whose expected field is unknown.
var AllAttachmentFields = []string{FieldImageURL, FieldImage, FieldImageURLs}

// ModelProfile describes how an image model expects its reference image.
type ModelProfile struct {
	ID               string
	AttachmentFields []string
}

func (p ModelProfile) Accepts(field string) bool {
	for _, f := range p.AttachmentFields {
		if f == field {
			return true
		}
	}
	return false
}
