// Command admin manages groups and users from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/service"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin group-list                          - List groups")
	fmt.Println("  go run ./cmd/admin group-create <slug> <title> [desc]  - Create a group")
	fmt.Println("  go run ./cmd/admin group-delete <slug>                 - Delete a group; its posts become ungrouped")
	fmt.Println("  go run ./cmd/admin user-list                           - List users")
	fmt.Println("  go run ./cmd/admin user-delete <username>              - Delete a user with their posts, comments and follows")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	groups := service.NewGroupService(repository.NewGroupRepository(db))
	users := service.NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()
	args := os.Args[2:]

	switch os.Args[1] {
	case "group-list":
		err = listGroups(ctx, groups)
	case "group-create":
		if len(args) < 2 {
			usage()
			os.Exit(1)
		}
		err = createGroup(ctx, groups, args[0], args[1], strings.Join(args[2:], " "))
	case "group-delete":
		if len(args) < 1 {
			usage()
			os.Exit(1)
		}
		err = groups.DeleteGroup(ctx, args[0])
		if err == nil {
			fmt.Printf("Deleted group %s\n", args[0])
		}
	case "user-list":
		err = listUsers(ctx, users)
	case "user-delete":
		if len(args) < 1 {
			usage()
			os.Exit(1)
		}
		err = users.DeleteUser(ctx, args[0])
		if err == nil {
			fmt.Printf("Deleted user %s\n", args[0])
		}
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && len(appErr.Fields) > 0 {
			for field, msg := range appErr.Fields {
				fmt.Printf("%s: %s\n", field, msg)
			}
			os.Exit(1)
		}
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func createGroup(ctx context.Context, groups *service.GroupService, slug, title, description string) error {
	group, err := groups.CreateGroup(ctx, service.CreateGroupInput{
		Title:       title,
		Slug:        slug,
		Description: description,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created group %q (ID: %d, slug: %s)\n", group.Title, group.ID, group.Slug)
	return nil
}

func listGroups(ctx context.Context, groups *service.GroupService) error {
	list, err := groups.ListGroups(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No groups found")
		return nil
	}
	for _, g := range list {
		fmt.Printf("ID: %d | Slug: %s | Title: %s\n", g.ID, g.Slug, g.Title)
	}
	return nil
}

func listUsers(ctx context.Context, users *service.UserService) error {
	list, err := users.ListUsers(ctx, 1000, 0)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No users found")
		return nil
	}
	for _, u := range list {
		fmt.Printf("ID: %d | Username: %s | Email: %s\n", u.ID, u.Username, u.Email)
	}
	return nil
}
