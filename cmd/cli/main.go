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
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "financing-cli",
		Short: "Financing engine CLI tool",
		Long:  `A command line interface for interacting with the installment financing API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the financing API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Loan commands
	loanCmd := &cobra.Command{
		Use:   "loan",
		Short: "Loan operations",
	}

	getCmd := &cobra.Command{
		Use:   "get <loan-id>",
		Short: "Show a loan and its schedule",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/loans/" + args[0])
		},
	}

	installmentsCmd := &cobra.Command{
		Use:   "installments <loan-id>",
		Short: "Show the installment schedule of a loan",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/loans/" + args[0] + "/installments")
		},
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check schedule consistency across all loans",
		Run: func(cmd *cobra.Command, args []string) {
			checkConsistency()
		},
	}

	loanCmd.AddCommand(getCmd, installmentsCmd, consistencyCmd)
	rootCmd.AddCommand(loanCmd)

	// Payoff commands
	var through int
	payoffCmd := &cobra.Command{
		Use:   "payoff <loan-id>",
		Short: "Quote an early payoff",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON(fmt.Sprintf("/api/v1/loans/%s/payoff?through=%d", args[0], through))
		},
	}
	payoffCmd.Flags().IntVar(&through, "through", 1, "Settle through this installment number")
	rootCmd.AddCommand(payoffCmd)

	// Delinquency sweep
	var asOf string
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a delinquency sweep",
		Run: func(cmd *cobra.Command, args []string) {
			runSweep(asOf)
		},
	}
	sweepCmd.Flags().StringVar(&asOf, "as-of", "", "Sweep cutoff date (YYYY-MM-DD, defaults to today)")
	rootCmd.AddCommand(sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func getJSON(path string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	printIndented(body)
}

func runSweep(asOf string) {
	payload := map[string]string{}
	if asOf != "" {
		payload["as_of"] = asOf
	}
	requestBody, _ := json.Marshal(payload)

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+"/api/v1/delinquency/sweep", "application/json", bytes.NewReader(requestBody))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Sweep failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	printIndented(body)
}

func checkConsistency() {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/api/v1/loans/consistency")
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Consistency check FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Consistency check PASSED\n")
	if consistent, ok := result["consistent"].(bool); ok {
		fmt.Printf("Consistent: %v\n", consistent)
	}
	fmt.Printf("Loans checked: %v\n", result["loans_checked"])
}

func printIndented(body []byte) {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(out.String())
}
