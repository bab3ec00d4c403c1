package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"instrit/internal/classifier"
	"instrit/internal/helper"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [question]",
	Short: "Decide whether questions need the documents",
	Long: `Prints "y" when a question should be answered from the documents and "n"
otherwise. Without an argument, questions are read from stdin and every
answer is appended to the session log.`,
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	llm, err := newChatModel()
	if err != nil {
		return err
	}
	c := classifier.New(llm)
	ctx := cmd.Context()

	if len(args) > 0 {
		rag, err := c.Classify(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(decisionLetter(rag))
		return nil
	}

	session, err := helper.NewSessionLog(cfg.Chat.SessionLogPath)
	if err != nil {
		return err
	}
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Question: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			continue
		}
		if isExitWord(q) {
			return nil
		}
		start := time.Now()
		rag, err := c.Classify(ctx, q)
		if err != nil {
			log.Error().Err(err).Msg("Classification failed")
			continue
		}
		elapsed := time.Since(start)
		fmt.Printf("Answer: %s (%.2fs)\n", decisionLetter(rag), elapsed.Seconds())
		if err := session.Record(q, decisionLetter(rag), elapsed); err != nil {
			log.Warn().Err(err).Msg("Failed to write session log")
		}
	}
}

func decisionLetter(rag bool) string {
	if rag {
		return "y"
	}
	return "n"
}

func isExitWord(s string) bool {
	for _, w := range cfg.Chat.ExitWords {
		if strings.EqualFold(strings.TrimSpace(s), w) {
			return true
		}
	}
	return false
}
