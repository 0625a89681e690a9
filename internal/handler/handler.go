package handler

import (
	"lounge/backend/internal/chat"
	"lounge/backend/internal/directory"
	"lounge/backend/internal/hub"
	"lounge/backend/internal/idem"
	"lounge/backend/internal/relation"

	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Options carries the collaborators of a Handler.
type Options struct {
	DB        *gorm.DB
	Directory *directory.Directory
	Friends   *relation.Service
	Chat      *chat.Service
	Rooms     *hub.Hub

	// Idempotency is optional; without it Idempotency-Key headers are ignored.
	Idempotency idem.Store

	// WSMessagesPerSecond limits sendMessage frames per connection. Zero means unlimited.
	WSMessagesPerSecond float64
}

// Handler serves the HTTP and websocket API.
type Handler struct {
	db      *gorm.DB
	users   *directory.Directory
	friends *relation.Service
	chat    *chat.Service
	rooms   *hub.Hub
	idem    idem.Store

	wsRate  rate.Limit
	wsBurst int
}

func New(opts Options) *Handler {
	h := &Handler{
		db:      opts.DB,
		users:   opts.Directory,
		friends: opts.Friends,
		chat:    opts.Chat,
		rooms:   opts.Rooms,
		idem:    opts.Idempotency,
		wsRate:  rate.Inf,
	}
	if opts.WSMessagesPerSecond > 0 {
		h.wsRate = rate.Limit(opts.WSMessagesPerSecond)
		h.wsBurst = int(opts.WSMessagesPerSecond)
		if h.wsBurst < 1 {
			h.wsBurst = 1
		}
	}
	return h
}
