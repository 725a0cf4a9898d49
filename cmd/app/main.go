package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"taskmaster/internal/api"
	"taskmaster/internal/config"
	"taskmaster/internal/domain"
	"taskmaster/internal/logger"
	"taskmaster/internal/repository"
	"taskmaster/internal/session"
	"taskmaster/internal/workflow"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	store, err := session.NewStore(cfg.StateDir)
	if err != nil {
		logger.Fatal("session store init failed", "error", err)
	}

	client := api.NewClient(cfg.BackendURL, store, cfg.HTTPTimeout)
	repo := repository.NewTaskRepository(client)
	wf := workflow.New(repo)

	in := bufio.NewScanner(os.Stdin)
	ctx := context.Background()

	// Route guard: the dashboard is only reachable with a stored token.
	for !store.IsAuthenticated() {
		if !loginScreen(ctx, in, client, store) {
			return
		}
	}

	runDashboard(ctx, in, store, repo, wf)
}

// loginScreen handles the login/register surface. Returns false on EOF.
func loginScreen(ctx context.Context, in *bufio.Scanner, client *api.Client, store *session.Store) bool {
	fmt.Println("Task Master — please log in (login <user> <pass> | register <user> <pass> | quit)")

	for {
		fmt.Print("> ")
		if !in.Scan() {
			return false
		}
		fields := strings.Fields(in.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "login":
			if len(fields) != 3 {
				fmt.Println("usage: login <user> <pass>")
				continue
			}
			token, msg, err := client.Login(ctx, fields[1], fields[2])
			if err != nil {
				fmt.Println("login failed:", errMessage(err))
				continue
			}
			if err := store.Login(token, fields[1]); err != nil {
				logger.Error("failed to persist session", "error", err)
				continue
			}
			if msg != "" {
				fmt.Println(msg)
			}
			return true
		case "register":
			if len(fields) != 3 {
				fmt.Println("usage: register <user> <pass>")
				continue
			}
			msg, err := client.Register(ctx, fields[1], fields[2])
			if err != nil {
				fmt.Println("registration failed:", errMessage(err))
				continue
			}
			if msg == "" {
				msg = "Registration successful!"
			}
			fmt.Println(msg)
		case "quit", "exit":
			return false
		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}

func runDashboard(ctx context.Context, in *bufio.Scanner, store *session.Store, repo *repository.TaskRepository, wf *workflow.Workflow) {
	fmt.Printf("%s, %s! Here's your task list for today.\n", greeting(), displayName(store))

	filter := domain.FilterAll
	repo.Subscribe(func() {
		renderTasks(repo, filter)
	})

	// Load the collection once per session, not on every filter change.
	if err := repo.LoadAll(ctx); err != nil {
		fmt.Println(repo.Err())
	}

	fmt.Println("commands: list | filter <all|low|medium|high> | add | edit <id> | cancel | del <id> | logout | quit")
	for {
		fmt.Print("> ")
		if !in.Scan() {
			return
		}
		fields := strings.Fields(in.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "list":
			renderTasks(repo, filter)
		case "filter":
			if len(fields) != 2 {
				fmt.Println("usage: filter <all|low|medium|high>")
				continue
			}
			f, err := domain.ParseFilter(fields[1])
			if err != nil {
				fmt.Println(err)
				continue
			}
			filter = f
			renderTasks(repo, filter)
		case "add":
			// A failed edit leaves the modal open with its target id;
			// adding must start from a fresh draft, not update that task.
			if wf.EditOpen() {
				wf.Cancel()
			}
			fillDraft(in, wf, domain.TaskDraft{})
			if err := wf.Submit(ctx); err != nil {
				fmt.Println(wf.Err())
			}
		case "edit":
			if len(fields) != 2 {
				fmt.Println("usage: edit <id>")
				continue
			}
			task, ok := findTask(repo, fields[1])
			if !ok {
				fmt.Println("no such task:", fields[1])
				continue
			}
			wf.BeginEdit(task)
			fillDraft(in, wf, wf.Draft())
			if err := wf.Submit(ctx); err != nil {
				fmt.Println(wf.Err())
			}
		case "cancel":
			wf.Cancel()
			fmt.Println("edit cancelled")
		case "del":
			if len(fields) != 2 {
				fmt.Println("usage: del <id>")
				continue
			}
			if err := repo.Delete(ctx, fields[1]); err != nil {
				fmt.Println(repo.Err())
			}
		case "logout":
			if err := store.Logout(); err != nil {
				logger.Error("logout failed", "error", err)
			}
			fmt.Println("logged out")
			return
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}

// fillDraft prompts for each field; empty input keeps the seeded value.
func fillDraft(in *bufio.Scanner, wf *workflow.Workflow, seed domain.TaskDraft) {
	if v, ok := prompt(in, "title", seed.Title); ok {
		wf.SetTitle(v)
	}
	if v, ok := prompt(in, "description", seed.Description); ok {
		wf.SetDescription(v)
	}
	if v, ok := prompt(in, "deadline (YYYY-MM-DD)", seed.Deadline); ok {
		wf.SetDeadline(v)
	}
	if v, ok := prompt(in, "priority (low|medium|high)", string(seed.Priority)); ok {
		if p, err := domain.ParsePriority(v); err == nil {
			wf.SetPriority(p)
		} else {
			fmt.Println(err)
		}
	}
}

func prompt(in *bufio.Scanner, label, current string) (string, bool) {
	if current != "" {
		fmt.Printf("%s [%s]: ", label, current)
	} else {
		fmt.Printf("%s: ", label)
	}
	if !in.Scan() {
		return "", false
	}
	v := strings.TrimSpace(in.Text())
	if v == "" {
		return current, current != ""
	}
	return v, true
}

func renderTasks(repo *repository.TaskRepository, filter domain.FilterCriterion) {
	tasks := domain.FilterByPriority(repo.Snapshot(), filter)
	if len(tasks) == 0 {
		fmt.Println("No tasks available.")
		return
	}
	for _, t := range tasks {
		deadline := t.DeadlineDate()
		if deadline == "" {
			deadline = "no deadline"
		}
		fmt.Printf("[%s] %-8s %s — %s (%s)\n", t.ID, t.Priority, t.Title, t.Description, deadline)
	}
}

func findTask(repo *repository.TaskRepository, id string) (domain.Task, bool) {
	for _, t := range repo.Snapshot() {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

func displayName(store *session.Store) string {
	if name := store.DisplayName(); name != "" {
		return name
	}
	return "User"
}

func greeting() string {
	switch hour := time.Now().Hour(); {
	case hour < 12:
		return "Good morning"
	case hour < 18:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

func errMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
