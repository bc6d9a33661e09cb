package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/libertybell/apstudy/internal/study/app"
	"github.com/libertybell/apstudy/internal/study/domain"
	"github.com/libertybell/apstudy/internal/study/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "apstudy",
		Short:         "APUSH study aid account and progress tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRegisterCmd())
	root.AddCommand(newLoginCmd())
	root.AddCommand(newLogoutCmd())
	root.AddCommand(newWhoamiCmd())
	root.AddCommand(newPasswdCmd())
	root.AddCommand(newSettingsCmd())
	root.AddCommand(newProgressCmd())
	root.AddCommand(newThemeCmd())
	return root
}

func loadApp() (*app.Application, error) {
	return app.New(app.LoadConfig())
}

// promptPassword reads a password without echo, falling back to the provided
// flag value for scripted use.
func promptPassword(label, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	_, _ = fmt.Fprint(os.Stderr, label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func newRegisterCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create a new account and log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()
			ctx := context.Background()

			pw, err := promptPassword("Password: ", password)
			if err != nil {
				return err
			}

			account, err := application.Sessions.CreateAccount(ctx, args[0], pw)
			if err != nil {
				return err
			}

			// Account creation does not start a session on its own.
			if err := application.Sessions.CreateSession(ctx, account); err != nil {
				return err
			}

			fmt.Printf("Account created for %s\n", account.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newLoginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in to an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()
			ctx := context.Background()

			pw, err := promptPassword("Password: ", password)
			if err != nil {
				return err
			}

			account, err := application.Sessions.Authenticate(ctx, args[0], pw)
			if err != nil {
				return err
			}

			fmt.Printf("Logged in as %s\n", account.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()
			ctx := context.Background()

			application.Sessions.RestoreSession(ctx)
			application.Sessions.Logout(ctx)
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()
			ctx := context.Background()

			if !application.Sessions.RestoreSession(ctx) {
				fmt.Println("Not logged in")
				return nil
			}

			info, err := application.Sessions.UserInfo(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Email:      %s\n", info.Email)
			fmt.Printf("User ID:    %s\n", info.ID)
			fmt.Printf("Created:    %s\n", info.CreatedAt.Format("2006-01-02 15:04"))
			if info.LastLogin != nil {
				fmt.Printf("Last login: %s\n", info.LastLogin.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newPasswdCmd() *cobra.Command {
	var oldPassword, newPassword string

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the current user's password",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()
			ctx := context.Background()

			application.Sessions.RestoreSession(ctx)

			oldPw, err := promptPassword("Current password: ", oldPassword)
			if err != nil {
				return err
			}
			newPw, err := promptPassword("New password: ", newPassword)
			if err != nil {
				return err
			}

			if err := application.Sessions.ChangePassword(ctx, oldPw, newPw); err != nil {
				return err
			}
			fmt.Println("Password changed")
			return nil
		},
	}
	cmd.Flags().StringVar(&oldPassword, "old-password", "", "current password (prompted when omitted)")
	cmd.Flags().StringVar(&newPassword, "new-password", "", "new password (prompted when omitted)")
	return cmd
}

func newSettingsCmd() *cobra.Command {
	settings := &cobra.Command{
		Use:   "settings",
		Short: "Show or change preferences",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()
			ctx := context.Background()

			application.Sessions.RestoreSession(ctx)
			if err := application.Sessions.RequireAuth(); err != nil {
				return err
			}

			current, err := application.Sessions.CurrentSettings(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("theme:                       %s\n", current.Theme)
			fmt.Printf("reducedMotion:               %t\n", current.ReducedMotion)
			fmt.Printf("fontSize:                    %s\n", current.FontSize)
			fmt.Printf("highContrast:                %t\n", current.HighContrast)
			fmt.Printf("saveHistory:                 %t\n", current.SaveHistory)
			fmt.Printf("personalizedRecommendations: %t\n", current.PersonalizedRecommendations)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()
			ctx := context.Background()

			application.Sessions.RestoreSession(ctx)
			if err := application.Sessions.RequireAuth(); err != nil {
				return err
			}

			key := args[0]
			value, err := parseSettingValue(key, args[1])
			if err != nil {
				return err
			}

			if err := application.Sessions.UpdateSetting(ctx, key, value); err != nil {
				return err
			}
			fmt.Printf("%s = %s\n", key, args[1])
			return nil
		},
	}

	settings.AddCommand(set)
	return settings
}

// parseSettingValue maps CLI strings onto the types UpdateSetting expects.
func parseSettingValue(key, raw string) (any, error) {
	switch key {
	case service.SettingReducedMotion,
		service.SettingHighContrast,
		service.SettingSaveHistory,
		service.SettingPersonalizedRecommendations:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("setting %q expects true or false", key)
		}
		return v, nil
	default:
		return raw, nil
	}
}

func newProgressCmd() *cobra.Command {
	progress := &cobra.Command{
		Use:   "progress",
		Short: "Show or record study progress",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()
			ctx := context.Background()

			application.Sessions.RestoreSession(ctx)

			record, err := application.Sessions.LoadProgress(ctx)
			if err != nil {
				return err
			}
			printProgress(record)
			return nil
		},
	}

	var period int
	var correct bool
	practice := &cobra.Command{
		Use:   "practice",
		Short: "Record a practice question result",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()
			ctx := context.Background()

			application.Sessions.RestoreSession(ctx)

			record, err := application.Progress.RecordPractice(ctx, period, correct)
			if err != nil {
				return err
			}
			fmt.Printf("Period %d mastery: %d%%\n", period, record.Periods[period].Mastery)
			return nil
		},
	}
	practice.Flags().IntVar(&period, "period", 1, "curriculum period (1-9)")
	practice.Flags().BoolVar(&correct, "correct", false, "the answer was correct")

	skill := &cobra.Command{
		Use:   "skill <id> <score>",
		Short: "Record a skill score",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()
			ctx := context.Background()

			application.Sessions.RestoreSession(ctx)

			score, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("score must be a number")
			}
			if _, err := application.Progress.RecordSkill(ctx, args[0], score); err != nil {
				return err
			}
			fmt.Printf("Skill %s = %d\n", args[0], score)
			return nil
		},
	}

	hours := &cobra.Command{
		Use:   "hours <n>",
		Short: "Add study hours",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()
			ctx := context.Background()

			application.Sessions.RestoreSession(ctx)

			n, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("hours must be a number")
			}
			record, err := application.Progress.AddStudyHours(ctx, n)
			if err != nil {
				return err
			}
			fmt.Printf("Total study hours: %.1f\n", record.StudyHours)
			return nil
		},
	}

	rsvp := &cobra.Command{
		Use:   "rsvp <session-id>",
		Short: "Toggle an RSVP for a study session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()
			ctx := context.Background()

			application.Sessions.RestoreSession(ctx)

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("session id must be a number")
			}
			if _, err := application.Progress.ToggleRSVP(ctx, id); err != nil {
				return err
			}
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Delete the current user's progress record",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()
			ctx := context.Background()

			application.Sessions.RestoreSession(ctx)
			if err := application.Sessions.RequireAuth(); err != nil {
				return err
			}

			if err := application.Sessions.ClearProgress(ctx, ""); err != nil {
				return err
			}
			fmt.Println("Progress cleared")
			return nil
		},
	}

	progress.AddCommand(practice, skill, hours, rsvp, clear)
	return progress
}

func printProgress(record domain.Progress) {
	fmt.Printf("Practice questions: %d\n", record.PracticeQuestions)
	fmt.Printf("Study hours:        %.1f\n", record.StudyHours)

	if len(record.Periods) > 0 {
		fmt.Println("Periods:")
		periods := make([]int, 0, len(record.Periods))
		for number := range record.Periods {
			periods = append(periods, number)
		}
		sort.Ints(periods)
		for _, number := range periods {
			pp := record.Periods[number]
			fmt.Printf("  Period %d: %d%% mastery\n", number, pp.Mastery)
		}
	}

	if len(record.Activities) > 0 {
		fmt.Println("Recent activity:")
		for _, activity := range record.Activities {
			fmt.Printf("  %s  %s\n", activity.Timestamp.Format("2006-01-02 15:04"), activity.Action)
		}
	}
}

// newThemeCmd mirrors the web app's header toggle: authenticated users update
// their settings record, anonymous users flip the global theme key.
func newThemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "theme <light|dark|system>",
		Short: "Switch the colour theme",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			theme := args[0]
			switch theme {
			case domain.ThemeLight, domain.ThemeDark, domain.ThemeSystem:
			default:
				return errors.New("theme must be light, dark or system")
			}

			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()
			ctx := context.Background()

			if application.Sessions.RestoreSession(ctx) {
				return application.Sessions.UpdateSetting(ctx, service.SettingTheme, theme)
			}
			return application.KV().Set(ctx, service.KeyLegacyTheme, theme)
		},
	}
}
