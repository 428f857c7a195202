package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL        string
	timeout        time.Duration
	referenceNum   string
	idempotencyKey string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "transactor-cli",
		Short: "Transactor CLI tool",
		Long:  `A command line interface for interacting with the Transactor API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Transactor API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&referenceNum, "reference", "", "Reference number for safe retries")
	rootCmd.PersistentFlags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header value")

	depositCmd := &cobra.Command{
		Use:   "deposit <account-id> <amount>",
		Short: "Credit an account",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/transactions/deposit", map[string]any{
				"account_id":       args[0],
				"amount":           args[1],
				"reference_number": referenceNum,
			})
		},
	}

	withdrawCmd := &cobra.Command{
		Use:   "withdraw <account-id> <amount>",
		Short: "Debit an account",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/transactions/withdraw", map[string]any{
				"account_id":       args[0],
				"amount":           args[1],
				"reference_number": referenceNum,
			})
		},
	}

	transferCmd := &cobra.Command{
		Use:   "transfer <from-account-id> <to-account-id> <amount>",
		Short: "Move money between two accounts",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/transactions/transfer", map[string]any{
				"from_account_id":  args[0],
				"to_account_id":    args[1],
				"amount":           args[2],
				"reference_number": referenceNum,
			})
		},
	}

	openAccountCmd := &cobra.Command{
		Use:   "open-account <customer-id> <account-type> <opening-balance>",
		Short: "Open an account with a freshly allocated number",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/accounts", map[string]any{
				"customer_id":  args[0],
				"account_type": args[1],
				"balance":      args[2],
			})
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <transaction-id>",
		Short: "Retrieve a transaction",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/transactions/" + args[0])
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history <account-id>",
		Short: "List transactions touching an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/accounts/" + args[0] + "/transactions")
		},
	}

	rootCmd.AddCommand(depositCmd, withdrawCmd, transferCmd, openAccountCmd, getCmd, historyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func postJSON(path string, payload map[string]any) {
	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Printf("Failed to encode request: %v\n", err)
		os.Exit(1)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewReader(body))
	if err != nil {
		fmt.Printf("Failed to build request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	do(req)
}

func getJSON(path string) {
	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		fmt.Printf("Failed to build request: %v\n", err)
		os.Exit(1)
	}

	do(req)
}

func do(req *http.Request) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
	} else {
		fmt.Println(pretty.String())
	}

	if resp.StatusCode >= 400 {
		fmt.Printf("Request failed (Status: %d)\n", resp.StatusCode)
		os.Exit(1)
	}
}
