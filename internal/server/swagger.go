package server

//go:generate swag init -g internal/server/swagger.go -o internal/server/docs

// @title a11yscan API
// @version 0.1
// @description Accessibility scanning of public web pages: one-shot scans, background scan jobs and scan history.
// @contact.name a11yscan Maintainers
// @contact.url https://github.com/raysh454/a11yscan
// @BasePath /
