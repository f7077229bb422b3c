package model

import "time"

// Item is a concession catalog entry.
type Item struct {
	ID        uint64    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	ImageURL  string    `db:"image_url" json:"imageUrl"`
	Price     int64     `db:"price" json:"price"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Movie carries only what scheduling needs.
type Movie struct {
	ID        uint64    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Duration  int       `db:"duration_min" json:"duration"` // minutes
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// RoomType groups rooms by format (2D, 3D, IMAX).
type RoomType struct {
	ID   uint64 `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
