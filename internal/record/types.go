// Package record defines the harvested data model and its on-disk JSON
// layout: one directory per project holding the detail record, the image
// metadata list, and the downloaded images.
package record

// Detail is the structured metadata extracted from one project page. Empty
// fields are omitted from the serialized record rather than stored as null.
type Detail struct {
	ProjectID   string   `json:"Project ID,omitempty"`
	Title       string   `json:"Project Title,omitempty"`
	Categories  []string `json:"Categories,omitempty"`
	City        string   `json:"City,omitempty"`
	Country     string   `json:"Country,omitempty"`
	Architects  []string `json:"Architects,omitempty"`
	Area        string   `json:"Area,omitempty"`
	Year        string   `json:"Year,omitempty"`
	ProjectURL  string   `json:"Project URL,omitempty"`
	Description []string `json:"Description,omitempty"`
}

// Image is the metadata kept for one successfully downloaded gallery image.
// Index position in the persisted list matches download order even when
// earlier ordinals failed.
type Image struct {
	Filename string   `json:"filename"`
	Tags     []string `json:"tags"`
	Caption  string   `json:"caption"`
}

// GalleryItem is one thumbnail link found on a project page, in page order.
type GalleryItem struct {
	Href  string
	Title string
}
