package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"firesafety-backend/internal/audit"
	"firesafety-backend/internal/auth"
	"firesafety-backend/internal/handlers"
	"firesafety-backend/internal/models"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage registered technicians and admins",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered users",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		if s.data == nil {
			return errNoData
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TECHNICIAN ID\tNAME\tEMAIL\tROLE\tPIN")
		for _, u := range s.data.RegisteredUsers {
			pin := "hashed"
			if u.PINHash == "" {
				pin = "legacy"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.TechnicianID, u.FullName(), u.Email, u.Role, pin)
		}
		return tw.Flush()
	},
}

var newUser models.CreateUserRequest

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a user with a hashed PIN",
	Example: `  fsctl users add --first Sam --last Lee --tech-id TECH-003 --pin 9876
  fsctl users add --first Ops --tech-id TECH-900 --pin 4321 --role admin --email ops@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if newUser.Role == "" {
			newUser.Role = models.RoleTech
		}
		if !models.ValidRole(newUser.Role) {
			return fmt.Errorf("role must be 'admin' or 'tech'")
		}
		hash, err := auth.HashPIN(newUser.PIN)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		who, err := actor(s.data)
		if err != nil {
			return err
		}

		user := models.RegisteredUser{
			ID:           models.NewID(),
			FirstName:    strings.TrimSpace(newUser.FirstName),
			LastName:     strings.TrimSpace(newUser.LastName),
			Email:        strings.TrimSpace(newUser.Email),
			PINHash:      hash,
			Role:         newUser.Role,
			TechnicianID: strings.TrimSpace(newUser.TechnicianID),
		}
		_, err = s.store.Update(ctx, func(d *models.AppData) error {
			if err := handlers.AddUser(d, user); err != nil {
				return err
			}
			audit.Record(d, models.ActionCreated, models.EntityUser, user.FullName(), who, user.TechnicianID, time.Now())
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Printf("Registered %s (%s) as %s\n", user.FullName(), user.TechnicianID, user.Role)
		return nil
	},
}

func init() {
	f := usersAddCmd.Flags()
	f.StringVar(&newUser.FirstName, "first", "", "first name")
	f.StringVar(&newUser.LastName, "last", "", "last name")
	f.StringVar(&newUser.Email, "email", "", "login email")
	f.StringVar(&newUser.TechnicianID, "tech-id", "", "technician id, e.g. TECH-003")
	f.StringVar(&newUser.PIN, "pin", "", "login PIN")
	f.StringVar(&newUser.Role, "role", models.RoleTech, "admin or tech")
	_ = usersAddCmd.MarkFlagRequired("first")
	_ = usersAddCmd.MarkFlagRequired("tech-id")
	_ = usersAddCmd.MarkFlagRequired("pin")

	usersCmd.AddCommand(usersListCmd, usersAddCmd)
	rootCmd.AddCommand(usersCmd)
}
