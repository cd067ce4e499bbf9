package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

func getJSON(path string) error {
	resp, err := httpClient.Get(apiAddr + path)
	if err != nil {
		return err
	}

	return printResponse(resp)
}

func postJSON(path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := httpClient.Post(apiAddr+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}

	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		pretty.Write(data)
	}

	fmt.Fprintln(os.Stdout, pretty.String())

	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed with status %s", resp.Status)
	}

	return nil
}
