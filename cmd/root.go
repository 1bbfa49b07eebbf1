package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "skillbridge",
	Short: "SkillBridge - peer tutoring platform backend",
	Long: `SkillBridge is the backend for a peer tutoring marketplace.
It handles accounts and authentication, session booking, real-time
session chat, reviews, and provider search.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is .env)")
}
