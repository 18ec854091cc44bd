// Command hashpass prints the bcrypt hash of the organizer password read from
// stdin, for use as ORGANIZER_PASSWORD_HASH.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/Dosada05/swiss-tournament/utils"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	password, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && password == "" {
		logger.Error("failed to read password from stdin", slog.Any("error", err))
		os.Exit(1)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Println(hash)
}
