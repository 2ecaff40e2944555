package entity

// BookStatus is an open enum. The loan engine only ever writes
// BookAvailable and BookLoaned; other values make a book non-loanable.
type BookStatus string

const (
	BookAvailable   BookStatus = "available"
	BookLoaned      BookStatus = "loaned"
	BookReserved    BookStatus = "reserved"
	BookMaintenance BookStatus = "maintenance"
)

// Book is a catalog entry. Status must be BookLoaned exactly when a loan
// holding the book exists.
type Book struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Category    string     `json:"category"`
	Description string     `json:"description,omitempty"`
	CoverURL    string     `json:"coverUrl,omitempty"`
	BannerURL   string     `json:"bannerUrl,omitempty"`
	Status      BookStatus `json:"status"`
}
