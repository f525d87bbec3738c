package main

import "github.com/adanyl0v/go-task-tracker/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()
	defer app.CloseLogFile()

	app.MustInitStorage()
	defer app.CloseStorage()

	app.MustListenAndServeHTTP()
}
