package api

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/scribahq/scriba/cache"
	"github.com/scribahq/scriba/cmd/utils"
	"github.com/scribahq/scriba/service/auth"
	"github.com/scribahq/scriba/service/posts"
	"github.com/scribahq/scriba/templates"
)

type APIServer struct {
	address string
	db      *gorm.DB
}

func NewApiServer(address string, db *gorm.DB) *APIServer {
	return &APIServer{
		address: address,
		db:      db,
	}
}

func (s *APIServer) Run() error {
	render, err := templates.New()
	if err != nil {
		return err
	}

	router := mux.NewRouter().StrictSlash(true)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.NotFound(w)
	})

	pageCache := cache.New(cache.HomeTTL)

	postHandler := posts.NewHandler(s.db, render, pageCache)
	postHandler.RegisterRoutes(router)

	authHandler := auth.NewHandler(s.db, render)
	authHandler.RegisterRoutes(router)

	fileServer := http.FileServer(http.Dir(utils.ImagePath))
	router.PathPrefix("/media/").Handler(http.StripPrefix("/media/", fileServer))

	log.Println("Server running at", s.address)
	return http.ListenAndServe(s.address, handlers.LoggingHandler(os.Stdout, router))
}
