package entities

// Favorite is a user's bookmarked book as kept in the realtime store.
type Favorite struct {
	BookID    string `json:"bookId"`
	Title     string `json:"title"`
	CoverURL  string `json:"coverUrl"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Comment is a user review attached to a book.
type Comment struct {
	ID        string `json:"id"`
	BookID    string `json:"bookId"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Text      string `json:"text"`
	Rating    int    `json:"rating"`
	UpdatedAt int64  `json:"updatedAt"`
}
