package models

import "time"

type Comment struct {
	ID       int64     `json:"id"`
	ItemID   int64     `json:"itemId"`
	AuthorID int64     `json:"authorId"`
	Text     string    `json:"text"`
	Created  time.Time `json:"created"`
}

// CommentView carries the author name alongside the comment.
type CommentView struct {
	Comment
	AuthorName string `json:"authorName"`
}
