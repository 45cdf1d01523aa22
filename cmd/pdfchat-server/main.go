// Package main PDF Chat API Server
//
//	@title			PDF Chat API
//	@version		1.0
//	@description	Upload PDF documents and chat with them using retrieval-augmented generation
//
//	@contact.name	API Support
//
//	@host		localhost:8080
//	@BasePath	/
package main

import (
	"log"

	_ "pdfchat/docs" // registers the swagger spec
	"pdfchat/internal/server"
)

func main() {
	log.Println("Starting PDF Chat server...")
	srv, err := server.NewServer()
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
