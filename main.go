package main

import (
	"log"

	"yashubustudio/subjectmerge/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
