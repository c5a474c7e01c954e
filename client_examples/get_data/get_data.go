package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cyverse/mockdata-pool/client"

	log "github.com/sirupsen/logrus"
)

func main() {
	logger := log.WithFields(log.Fields{
		"package":  "main",
		"function": "main",
	})

	address := flag.String("address", "localhost:12030", "Mock data pool service address")
	fetch := flag.Bool("fetch", false, "Load the whole dataset into the service cache first")

	// Parse cli parameters
	flag.Parse()
	args := flag.Args()

	if len(args) != 2 {
		fmt.Fprintf(os.Stderr, "Give start and end line indices!\n")
		os.Exit(1)
	}

	start, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		logger.Errorf("%+v", err)
		panic(err)
	}

	end, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		logger.Errorf("%+v", err)
		panic(err)
	}

	mockDataClient := client.NewMockDataClient(*address, time.Minute*5, "get_data", false)
	defer mockDataClient.Release()

	if *fetch {
		message, _, err := mockDataClient.FetchData()
		if err != nil {
			logger.Errorf("%+v", err)
			panic(err)
		}

		fmt.Printf("FETCH: %s (%d bytes)\n", message.Message, message.Size)
	}

	response, err := mockDataClient.GetData(start, end)
	if err != nil {
		logger.Errorf("%+v", err)
		panic(err)
	}

	for _, line := range response.Lines {
		fmt.Println(line)
	}

	if response.IsPartial() {
		fmt.Fprintf(os.Stderr, "%d lines were not available\n", response.UnresolvedLines)
	}

	if len(response.PopulationError) > 0 {
		fmt.Fprintf(os.Stderr, "cache population failed: %s\n", response.PopulationError)
	}
}
