package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/iqscaler/iqscaler-backend/internal/client"
	"github.com/iqscaler/iqscaler-backend/internal/logger"
	"github.com/iqscaler/iqscaler-backend/internal/session"
)

func main() {
	apiURL := flag.String("api", "http://localhost:5000/api/v1", "API base URL")
	email := flag.String("email", "", "Account email")
	logLevel := flag.String("log-level", "warn", "Log level")
	flag.Parse()

	log := logger.New(os.Stderr, *logLevel, "pretty")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader := bufio.NewReader(os.Stdin)
	if *email == "" {
		fmt.Print("Email: ")
		line, _ := reader.ReadString('\n')
		*email = strings.TrimSpace(line)
	}
	fmt.Print("Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error reading password:", err)
		os.Exit(1)
	}

	api := client.New(*apiURL)
	auth, err := api.Login(ctx, *email, string(pw))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Login failed:", err)
		os.Exit(1)
	}

	test, err := api.FetchTest(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Could not load the test:", err)
		os.Exit(1)
	}

	ctl := session.New(test.Questions, test.Config, api,
		session.WithListener(printEvent),
		session.WithLogger(log),
	)

	fmt.Printf("\nHello %s. %d questions, %d minutes.\n", auth.User.Name, len(test.Questions), test.Config.DurationMinutes)
	fmt.Println("Commands: 1-4 answer, n next, p prev, g <n> go to, f finish, r retry, q quit")
	if err := ctl.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Could not start:", err)
		os.Exit(1)
	}
	render(ctl)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(reader)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			ctl.Discard()
			fmt.Println("\nAttempt abandoned, nothing was submitted.")
			return
		case <-ctl.Done():
			showResult(ctx, api, ctl)
			return
		case line, ok := <-lines:
			if !ok {
				ctl.Discard()
				return
			}
			if quit := handle(ctx, ctl, line); quit {
				return
			}
		}
	}
}

// handle runs one command line. It reports whether the program should exit.
func handle(ctx context.Context, ctl *session.Controller, line string) bool {
	var err error
	fields := strings.Fields(line)
	if len(fields) == 0 {
		render(ctl)
		return false
	}

	switch cmd := fields[0]; cmd {
	case "n":
		err = ctl.Next()
	case "p":
		err = ctl.Prev()
	case "g":
		if len(fields) < 2 {
			err = errors.New("usage: g <question number>")
			break
		}
		n, convErr := strconv.Atoi(fields[1])
		if convErr != nil {
			err = convErr
			break
		}
		err = ctl.GoTo(n - 1)
	case "f":
		err = ctl.Finish(ctx)
	case "r":
		err = ctl.Retry(ctx)
	case "q":
		ctl.Discard()
		fmt.Println("Attempt abandoned, nothing was submitted.")
		return true
	default:
		n, convErr := strconv.Atoi(cmd)
		if convErr != nil {
			err = fmt.Errorf("unknown command %q", cmd)
			break
		}
		if err = ctl.AnswerCurrent(n - 1); err == nil {
			err = ctl.Next()
			if errors.Is(err, session.ErrOutOfRange) {
				err = nil
			}
		}
	}

	if err != nil {
		var submitErr *session.SubmitError
		if errors.As(err, &submitErr) {
			// printEvent already reported it
			return false
		}
		fmt.Println("!", err)
		return false
	}
	if ctl.State() == session.StateActive {
		render(ctl)
	}
	return false
}

func render(ctl *session.Controller) {
	s := ctl.Snapshot()
	if s.Total == 0 {
		return
	}
	q := s.Question
	fmt.Printf("\n[%d/%d] %s, %s  answered %d/%d  %s left\n",
		s.Index+1, s.Total, q.Category, q.Difficulty, s.Answered, s.Total, clock(s.Remaining))
	fmt.Println(q.Text)
	if q.ImageURL != "" {
		fmt.Println("  image:", q.ImageURL)
	}
	for i, opt := range q.Options {
		mark := " "
		if s.Selected == i {
			mark = "*"
		}
		text := opt.Text
		if text == "" {
			text = opt.ImageURL
		}
		fmt.Printf(" %s %d) %s\n", mark, i+1, text)
	}
	fmt.Print("> ")
}

func printEvent(ev session.Event) {
	switch ev.Kind {
	case session.EventTick:
		if ev.Remaining%60 == 0 || ev.Remaining <= 10 {
			fmt.Printf("\n  %s left\n> ", clock(ev.Remaining))
		}
	case session.EventStateChanged:
		switch ev.State {
		case session.StateSubmitting:
			if ev.Auto {
				fmt.Println("\nTime is up, submitting your answers...")
			} else {
				fmt.Println("\nSubmitting your answers...")
			}
		case session.StateFailed:
			fmt.Printf("\nSubmission failed: %v\nType r to retry.\n> ", ev.Err)
		}
	}
}

func showResult(ctx context.Context, api *client.Client, ctl *session.Controller) {
	id, _ := ctl.ResultID()
	res, err := api.Result(ctx, id)
	if err != nil {
		fmt.Printf("\nSubmitted. Result %s could not be loaded: %v\n", id, err)
		return
	}
	fmt.Printf("\nScore %d / %d  (%d correct, %d attempted of %d) in %s\n",
		res.TotalScore, res.MaxScore, res.CorrectAnswers, res.QuestionsAttempted, res.TotalQuestions,
		(time.Duration(res.TimeTakenSeconds) * time.Second).String())
	fmt.Println("Result id:", res.ID)
}

func clock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
