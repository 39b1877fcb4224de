package domain

// Photo is the metadata of a stock photo returned by the photo provider.
type Photo struct {
	ID    string
	URLs  PhotoURLs
	User  PhotoUser
	Links PhotoLinks
}

// PhotoURLs holds the rendition URLs of a photo.
type PhotoURLs struct {
	Small   string
	Regular string
}

// PhotoUser identifies the photographer.
type PhotoUser struct {
	Name     string
	Username string
}

// PhotoLinks holds the provider page links of a photo.
type PhotoLinks struct {
	HTML string
}

// Attribution returns the credit line shown next to a trip cover image.
func (p Photo) Attribution() string {
	return "Photo by " + p.User.Name + " on Unsplash"
}
