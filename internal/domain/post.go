package domain

// Author identifies who wrote a post or reply.
type Author struct {
	// Name is the display name or handle.
	Name string `json:"name"`

	// Avatar is a URL to the author's profile image.
	Avatar string `json:"avatar"`

	// Verified is the platform's verification badge.
	Verified bool `json:"verified"`

	// Important marks accounts the feed already knows to be notable
	// (brands, media outlets, influencers). The classifier may promote
	// additional authors to important, never demote this flag.
	Important bool `json:"important"`
}

// Reply is a single response to a post. It is immutable input: created once
// per incoming reply and never mutated by the pipeline.
type Reply struct {
	// ID is the platform-assigned reply identifier.
	ID string `json:"id"`

	// Type is "text", "image", or "gif".
	Type string `json:"type"`

	// Content is the reply body text.
	Content string `json:"content"`

	// MediaURL points at attached media, if any.
	MediaURL string `json:"media_url,omitempty"`

	Author Author `json:"author"`

	// Language is the BCP 47 language tag set by the author's client.
	Language string `json:"language"`

	// Timestamp is when the reply was posted, as reported by the platform.
	Timestamp string `json:"timestamp,omitempty"`
}

// HasMedia reports whether the reply carries fetchable media the classifier
// should look at.
func (r Reply) HasMedia() bool {
	return r.MediaURL != "" && (r.Type == "image" || r.Type == "gif")
}

// Post is the social media post whose replies are analyzed.
type Post struct {
	// ID is the platform-assigned post identifier.
	ID string `json:"id"`

	// Type is "text" or "image".
	Type string `json:"type"`

	// Content is the post body text.
	Content string `json:"content"`

	// ImageURL points at the post's image, if any.
	ImageURL string `json:"image_url,omitempty"`

	Author Author `json:"author"`

	// Timestamp is when the post was published.
	Timestamp string `json:"timestamp"`

	// Replies are the responses to analyze, in feed order.
	Replies []Reply `json:"replies"`
}
