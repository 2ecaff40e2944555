package application

import "github.com/oksasatya/go-ddd-library/internal/domain/entity"

// IsAvailable reports whether book can be handed out right now.
func IsAvailable(book entity.Book) bool {
	return book.Status == entity.BookAvailable
}

func MarkLoaned(book *entity.Book) { book.Status = entity.BookLoaned }

func MarkAvailable(book *entity.Book) { book.Status = entity.BookAvailable }

func indexOfBook(books []entity.Book, id string) int {
	for i := range books {
		if books[i].ID == id {
			return i
		}
	}
	return -1
}
