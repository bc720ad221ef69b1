package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// yesAnswers are accepted as "yes", including the Polish answers the
// recording app's users type.
var yesAnswers = map[string]bool{"y": true, "yes": true, "t": true, "tak": true}

// readLine prints prompt and returns the trimmed reply.
func (a *app) readLine(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a y/n question. Anything but a yes answer is no.
func (a *app) confirm(question string) (bool, error) {
	answer, err := a.readLine(question + " (y/n): ")
	if err != nil {
		return false, err
	}
	return yesAnswers[strings.ToLower(answer)], nil
}
