package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/vaultpay/internal/domain/model"
)

func (c *cli) loginCmd() *cobra.Command {
	var email, password, code string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token encrypted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.get(cmd.Context())
			if err != nil {
				return err
			}
			if email, err = c.flagOrPrompt(cmd, email, "Email"); err != nil {
				return err
			}
			if password, err = c.secretFlagOrPrompt(cmd, password, "Password"); err != nil {
				return err
			}

			result, err := a.auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			if result.MFARequired {
				if code, err = c.flagOrPrompt(cmd, code, "MFA code"); err != nil {
					return err
				}
				if err := a.auth.VerifyMFA(cmd.Context(), code); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", sanitize(result.User.Email))
			if !result.User.IsEmailVerified {
				fmt.Fprintln(cmd.OutOrStdout(), "Your email address is not verified yet.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when empty)")
	cmd.Flags().StringVar(&password, "password", "", "account password; visible in shell history and process lists, omit to be prompted")
	cmd.Flags().StringVar(&code, "code", "", "6-digit MFA code for accounts with MFA enabled")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and remove the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.get(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a usable session is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.get(cmd.Context())
			if err != nil {
				return err
			}

			info := a.auth.Status(cmd.Context())
			printStatus(cmd.OutOrStdout(), info, time.Now())

			if verbose {
				return printDiagnostics(cmd.OutOrStdout(), a.registry)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also print session read diagnostics")
	return cmd
}

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the account profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.get(cmd.Context())
			if err != nil {
				return err
			}
			user, err := a.profile.Profile(cmd.Context())
			if err != nil {
				return err
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		},
	}
	cmd.AddCommand(c.profileUpdateCmd())
	return cmd
}

func (c *cli) profileUpdateCmd() *cobra.Command {
	var firstName, lastName, phone string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields; only the flags given are sent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.get(cmd.Context())
			if err != nil {
				return err
			}

			var update model.ProfileUpdate
			flags := cmd.Flags()
			if flags.Changed("first-name") {
				update.FirstName = &firstName
			}
			if flags.Changed("last-name") {
				update.LastName = &lastName
			}
			if flags.Changed("phone") {
				update.Phone = &phone
			}

			user, err := a.profile.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile updated")
			printUser(cmd.OutOrStdout(), user)
			return nil
		},
	}
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number in international format, e.g. +15551234567")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.get(cmd.Context())
			if err != nil {
				return err
			}
			if email, err = c.flagOrPrompt(cmd, email, "Email"); err != nil {
				return err
			}
			if password, err = c.secretFlagOrPrompt(cmd, password, "Password"); err != nil {
				return err
			}

			reg, err := a.auth.Register(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			printMessage(cmd.OutOrStdout(), reg.Message, "Account created. Check your inbox to verify your email.")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when empty)")
	cmd.Flags().StringVar(&password, "password", "", "new password; visible in shell history and process lists, omit to be prompted")
	return cmd
}

func (c *cli) verifyEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email TOKEN",
		Short: "Confirm an email address with the token from the verification link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.get(cmd.Context())
			if err != nil {
				return err
			}
			msg, err := a.auth.VerifyEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printMessage(cmd.OutOrStdout(), msg, "Email verified")
			return nil
		},
	}
}

func (c *cli) forgotPasswordCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.get(cmd.Context())
			if err != nil {
				return err
			}
			if email, err = c.flagOrPrompt(cmd, email, "Email"); err != nil {
				return err
			}
			msg, err := a.auth.ForgotPassword(cmd.Context(), email)
			if err != nil {
				return err
			}
			printMessage(cmd.OutOrStdout(), msg, "If the account exists, a reset link is on its way.")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when empty)")
	return cmd
}

func (c *cli) resetPasswordCmd() *cobra.Command {
	var token, password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with the token from the reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.get(cmd.Context())
			if err != nil {
				return err
			}
			if token, err = c.flagOrPrompt(cmd, token, "Reset token"); err != nil {
				return err
			}
			if password, err = c.secretFlagOrPrompt(cmd, password, "New password"); err != nil {
				return err
			}
			msg, err := a.auth.ResetPassword(cmd.Context(), token, password)
			if err != nil {
				return err
			}
			printMessage(cmd.OutOrStdout(), msg, "Password reset")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "reset token (prompted when empty)")
	cmd.Flags().StringVar(&password, "password", "", "new password; visible in shell history and process lists, omit to be prompted")
	return cmd
}

func (c *cli) mfaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mfa",
		Short: "Manage multi-factor authentication",
	}

	setup := &cobra.Command{
		Use:   "setup",
		Short: "Start MFA enrolment and print the secret and backup codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.get(cmd.Context())
			if err != nil {
				return err
			}
			s, err := a.auth.SetupMFA(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Secret: %s\n", sanitize(s.Secret))
			if len(s.BackupCodes) > 0 {
				fmt.Fprintf(out, "Backup codes: %s\n", sanitize(strings.Join(s.BackupCodes, " ")))
			}
			fmt.Fprintln(out, "Add the secret to your authenticator app, then run: vaultpay mfa enable CODE")
			return nil
		},
	}

	enable := &cobra.Command{
		Use:   "enable CODE",
		Short: "Confirm enrolment with a code from the authenticator app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.get(cmd.Context())
			if err != nil {
				return err
			}
			codes, err := a.auth.EnableMFA(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "MFA enabled")
			if len(codes) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Backup codes: %s\n", sanitize(strings.Join(codes, " ")))
			}
			return nil
		},
	}

	var password string
	disable := &cobra.Command{
		Use:   "disable",
		Short: "Turn MFA off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.get(cmd.Context())
			if err != nil {
				return err
			}
			if password, err = c.secretFlagOrPrompt(cmd, password, "Password"); err != nil {
				return err
			}
			msg, err := a.auth.DisableMFA(cmd.Context(), password)
			if err != nil {
				return err
			}
			printMessage(cmd.OutOrStdout(), msg, "MFA disabled")
			return nil
		},
	}
	disable.Flags().StringVar(&password, "password", "", "account password; visible in shell history and process lists, omit to be prompted")

	cmd.AddCommand(setup, enable, disable)
	return cmd
}
