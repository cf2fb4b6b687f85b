package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/soaresmg/liber/internal/catalog"
)

type bookResponse struct {
	ID        uuid.UUID  `json:"id"`
	ISBN      string     `json:"isbn"`
	Title     string     `json:"title"`
	Author    string     `json:"author,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type copyResponse struct {
	ID        uuid.UUID          `json:"id"`
	BookID    uuid.UUID          `json:"book_id"`
	Status    catalog.CopyStatus `json:"status"`
	QR        string             `json:"qr"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt *time.Time         `json:"updated_at,omitempty"`
}

func toBookResponse(b *catalog.Book) bookResponse {
	return bookResponse{
		ID:        b.ID,
		ISBN:      b.ISBN,
		Title:     b.Title,
		Author:    b.Author,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func toBookResponseList(books []*catalog.Book) []bookResponse {
	resp := make([]bookResponse, len(books))
	for i, b := range books {
		resp[i] = toBookResponse(b)
	}

	return resp
}

func toCopyResponse(c *catalog.Copy) copyResponse {
	return copyResponse{
		ID:        c.ID,
		BookID:    c.BookID,
		Status:    c.Status,
		QR:        c.QR(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toCopyResponseList(copies []*catalog.Copy) []copyResponse {
	resp := make([]copyResponse, len(copies))
	for i, c := range copies {
		resp[i] = toCopyResponse(c)
	}

	return resp
}
