package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/document-extractor/internal/models"
)

var chatCmd = &cobra.Command{
	Use:   "chat [file]",
	Short: "Extract a document and ask questions about it on stdin",
	Long: `Extracts the file, then reads one question per line from stdin and
streams each answer to stdout. An empty line or EOF ends the session.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().String("transcript", "", "Write the conversation as JSON to this path")
	chatCmd.Flags().BoolP("verbose", "v", false, "Log to stderr")
}

func runChat(cmd *cobra.Command, args []string) error {
	transcriptPath, _ := cmd.Flags().GetString("transcript")
	verbose, _ := cmd.Flags().GetBool("verbose")

	a, err := cliApp(cmd.Context(), verbose)
	if err != nil {
		return err
	}

	resp, err := extractFile(cmd.Context(), a, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Extracted %d fields from %s (%s).\n", len(resp.Data.ExtractedFields), args[0], resp.Data.DocumentType)

	var transcript []models.ChatMessage
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			break
		}

		answer, err := ask(cmd, a, resp.ID, question, out)
		if err != nil {
			return err
		}
		transcript = append(transcript,
			models.ChatMessage{Role: models.ChatRoleUser, Content: question},
			models.ChatMessage{Role: models.ChatRoleAssistant, Content: answer})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	if transcriptPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	return writeOutput(out, transcriptPath, data)
}

func ask(cmd *cobra.Command, a *app, id, question string, out io.Writer) (string, error) {
	stream, err := a.services.Chat.Stream(cmd.Context(), &models.ChatRequest{ID: id, Message: question})
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var answer strings.Builder
	for {
		tok, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		answer.WriteString(tok)
		fmt.Fprint(out, tok)
	}
	fmt.Fprintln(out)

	return answer.String(), nil
}
