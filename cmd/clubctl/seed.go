package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"clubportal/internal/model"
	"clubportal/internal/repository"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert bootstrap data",
}

var superuserFlags struct {
	username string
	password string
	email    string
}

// seedSuperuserCmd creates the first administrator, or resets the password
// and superuser flag when the account already exists.
var seedSuperuserCmd = &cobra.Command{
	Use:   "superuser",
	Short: "Create or reset a superuser account",
	RunE: func(cmd *cobra.Command, args []string) error {
		username := strings.TrimSpace(superuserFlags.username)
		if username == "" || len(superuserFlags.password) < 6 {
			return fmt.Errorf("--username and a --password of at least 6 characters are required")
		}

		_, gormDB, err := openDB()
		if err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(superuserFlags.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		ctx := cmd.Context()
		users := repository.NewUserRepository(gormDB)
		user, err := users.FindByUsername(ctx, username)
		switch {
		case stderrors.Is(err, gorm.ErrRecordNotFound):
			user = &model.User{
				Username:     username,
				Email:        superuserFlags.email,
				PasswordHash: string(hash),
				Role:         model.RoleWebLead,
				IsSuperuser:  true,
				IsActive:     true,
			}
			err = users.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
				if err := repo.Create(ctx, user); err != nil {
					return err
				}
				return repo.SaveProfile(ctx, &model.MemberProfile{UserID: &user.ID})
			})
			if err != nil {
				return fmt.Errorf("create superuser: %w", err)
			}
			logger().Info("superuser created", "username", username, "id", user.ID)
		case err != nil:
			return fmt.Errorf("look up user: %w", err)
		default:
			user.PasswordHash = string(hash)
			user.IsSuperuser = true
			user.IsActive = true
			if superuserFlags.email != "" {
				user.Email = superuserFlags.email
			}
			if err := users.Update(ctx, user); err != nil {
				return fmt.Errorf("update superuser: %w", err)
			}
			logger().Info("superuser reset", "username", username, "id", user.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.AddCommand(seedSuperuserCmd)

	seedSuperuserCmd.Flags().StringVar(&superuserFlags.username, "username", "", "login name")
	seedSuperuserCmd.Flags().StringVar(&superuserFlags.password, "password", "", "initial password")
	seedSuperuserCmd.Flags().StringVar(&superuserFlags.email, "email", "", "contact email")
	_ = seedSuperuserCmd.MarkFlagRequired("username")
	_ = seedSuperuserCmd.MarkFlagRequired("password")
}
