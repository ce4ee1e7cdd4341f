package game

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ExportRound appends one finished round's prompt and turn log to a plain
// text file, for the installation's archive.
func ExportRound(prompt *Prompt, turns []Turn, filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "create export directory")
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errors.Wrap(err, "open export file")
	}
	defer file.Close()

	var sb strings.Builder
	topic := ""
	if prompt != nil {
		topic = prompt.Topic
	}
	sb.WriteString(fmt.Sprintf("Round ended %s (topic=%q)\n",
		time.Now().Format("2006-01-02 15:04:05"), topic))
	sb.WriteString(strings.Repeat("-", 40) + "\n")
	for _, t := range turns {
		sb.WriteString(fmt.Sprintf("P%d said:    %s\n", t.Player, t.Original))
		sb.WriteString(fmt.Sprintf("P%d misheard: %s\n", t.Player, t.Misheard))
	}
	sb.WriteString("\n")

	_, err = file.WriteString(sb.String())
	return errors.Wrap(err, "write export file")
}
