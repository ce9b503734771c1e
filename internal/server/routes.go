package server

import (
	"net/http"
)

func SetupRoutes(letterHandler *LetterService) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/letters/pending", letterHandler.GetPendingLetters)
	mux.HandleFunc("/letters/stale", letterHandler.GetStaleLetters)
	mux.HandleFunc("/letters/", letterHandler.GetLetter)

	return mux
}
