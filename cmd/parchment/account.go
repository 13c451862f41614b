// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/parchment/internal/account"
	"github.com/pdiddy/parchment/internal/feedback"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage your parchment account",
	Long: `Create an account, sign in and out, and manage your email and password.

Codes for email verification and password reset are printed to the
terminal.`,
}

var accountStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is signed in",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		sess, err := currentSession(ctx, a)
		if err != nil {
			return errors.New(userMessage(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (session expires %s)\n",
			sess.Email, sess.ExpiresAt.Local().Format("02 Jan 2006 15:04"))
		return nil
	}),
}

var accountSignupCmd = &cobra.Command{
	Use:   "signup <email>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		again, err := promptPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != again {
			return errors.New("Passwords do not match.")
		}
		if _, err := a.accounts.SignUp(ctx, args[0], password); err != nil {
			return errors.New(userMessage(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), `Account created. Run "parchment account verify <code>" with the code above, then sign in.`)
		return nil
	}),
}

var accountVerifyCmd = &cobra.Command{
	Use:   "verify <code>",
	Short: "Confirm an email address with a mailed code",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		if err := a.accounts.VerifyEmail(ctx, args[0]); err != nil {
			return errors.New(userMessage(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Email verified.")
		return nil
	}),
}

var accountSigninCmd = &cobra.Command{
	Use:   "signin <email>",
	Short: "Sign in",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		sess, err := a.accounts.SignIn(ctx, args[0], password)
		if err != nil {
			return errors.New(userMessage(err))
		}
		if err := saveSession(sess); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
		cues.Notify(feedback.Success)
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", sess.Email)
		return nil
	}),
}

var accountSignoutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Sign out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := clearSession(); err != nil {
			return fmt.Errorf("signing out: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var accountResetCmd = &cobra.Command{
	Use:   "reset-password <email>",
	Short: "Mail a password reset code",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		if err := a.accounts.ResetPassword(ctx, args[0]); err != nil {
			return errors.New(userMessage(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), `If an account exists for that email, a reset code has been sent. Run "parchment account confirm-reset <code>".`)
		return nil
	}),
}

var accountConfirmResetCmd = &cobra.Command{
	Use:   "confirm-reset <code>",
	Short: "Set a new password with a reset code",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		password, err := promptPassword("New password: ")
		if err != nil {
			return err
		}
		if err := a.accounts.ConfirmPasswordReset(ctx, args[0], password); err != nil {
			return errors.New(userMessage(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Password updated. You can sign in now.")
		return nil
	}),
}

var accountChangePasswordCmd = &cobra.Command{
	Use:   "change-password",
	Short: "Change your password",
	Args:  cobra.NoArgs,
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, a *app, sess account.Session, args []string) error {
		current, err := promptPassword("Current password: ")
		if err != nil {
			return err
		}
		next, err := promptPassword("New password: ")
		if err != nil {
			return err
		}
		if err := a.accounts.ChangePassword(ctx, sess, current, next); err != nil {
			return errors.New(userMessage(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Password updated successfully.")
		return nil
	}),
}

var accountChangeEmailCmd = &cobra.Command{
	Use:   "change-email <new-email>",
	Short: "Change your email address",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, a *app, sess account.Session, args []string) error {
		current, err := promptPassword("Current password: ")
		if err != nil {
			return err
		}
		if err := a.accounts.ChangeEmail(ctx, sess, args[0], current); err != nil {
			return errors.New(userMessage(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), `Verification code sent to the new address. Run "parchment account verify <code>" to complete the change.`)
		return nil
	}),
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete your account and everything saved in it",
	Args:  cobra.NoArgs,
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, a *app, sess account.Session, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm("This will permanently remove your account. This action cannot be undone. Continue?") {
			return nil
		}

		err := a.accounts.DeleteAccount(ctx, sess, "")
		if account.IsKind(err, account.KindRequiresRecentLogin) {
			fmt.Fprintln(cmd.ErrOrStderr(), userMessage(err))
			password, perr := promptPassword("Password: ")
			if perr != nil {
				return perr
			}
			err = a.accounts.DeleteAccount(ctx, sess, password)
		}
		if err != nil {
			return errors.New(userMessage(err))
		}
		if err := clearSession(); err != nil {
			logger.Warn(ctx, "clearing session", "error", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Account deleted.")
		return nil
	}),
}

func init() {
	accountDeleteCmd.Flags().BoolP("yes", "y", false, "delete without asking")

	accountCmd.AddCommand(accountStatusCmd)
	accountCmd.AddCommand(accountSignupCmd)
	accountCmd.AddCommand(accountVerifyCmd)
	accountCmd.AddCommand(accountSigninCmd)
	accountCmd.AddCommand(accountSignoutCmd)
	accountCmd.AddCommand(accountResetCmd)
	accountCmd.AddCommand(accountConfirmResetCmd)
	accountCmd.AddCommand(accountChangePasswordCmd)
	accountCmd.AddCommand(accountChangeEmailCmd)
	accountCmd.AddCommand(accountDeleteCmd)
	rootCmd.AddCommand(accountCmd)
}

// withApp opens the store for the duration of fn.
func withApp(fn func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, cmd, a, args)
	}
}

// withSession is withApp for commands that need a signed-in user.
func withSession(fn func(ctx context.Context, cmd *cobra.Command, a *app, sess account.Session, args []string) error) func(*cobra.Command, []string) error {
	return withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		sess, err := currentSession(ctx, a)
		if err != nil {
			return errors.New(userMessage(err))
		}
		return fn(ctx, cmd, a, sess, args)
	})
}
