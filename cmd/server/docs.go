package main

//go:generate swag init -g cmd/server/main.go -o docs

// @title           Pokedex API
// @version         0.1.0
// @description     Pokemon catalog with a Postgres cache backed by PokeAPI.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
