package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trebuchet-org/treb-deployd/internal/cli"
	"github.com/trebuchet-org/treb-deployd/internal/domain"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error (%s): %v\n", domain.ErrorKind(err), err)
		os.Exit(1)
	}
}
