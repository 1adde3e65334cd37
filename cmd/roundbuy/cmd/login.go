package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"roundbuy/pkg/auth"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to RoundBuy",
	Long:  `Sign in with your RoundBuy email and password. Tokens are stored locally and refreshed automatically.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			email, err = promptLine("Email")
			if err != nil {
				return err
			}
		}
		password, err := promptPassword("Password")
		if err != nil {
			return err
		}

		u, err := e.auth.Login(context.Background(), email, password)
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s <%s>\n", u.FullName, u.Email)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a RoundBuy account",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		name, err := promptLine("Full name")
		if err != nil {
			return err
		}
		email, err := promptLine("Email")
		if err != nil {
			return err
		}
		password, err := promptPassword("Password")
		if err != nil {
			return err
		}
		lang, _ := cmd.Flags().GetString("language")

		in := auth.RegisterInput{FullName: name, Email: email, Password: password, Language: lang}
		if err := e.auth.Register(context.Background(), in); err != nil {
			return err
		}
		fmt.Println("Account created. Run 'roundbuy login' to sign in.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and discard saved credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		if err := e.auth.Logout(context.Background()); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		if err := e.requireAuth(); err != nil {
			return err
		}
		u, err := e.auth.Profile(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s> (id %s)\n", u.FullName, u.Email, u.ID)
		return nil
	},
}

func promptLine(label string) (string, error) {
	fmt.Printf("%s: ", label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	v := strings.TrimSpace(line)
	if v == "" {
		return "", fmt.Errorf("%s cannot be empty", strings.ToLower(label))
	}
	return v, nil
}

func promptPassword(label string) (string, error) {
	fmt.Printf("%s: ", label)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		// Fall back to plain input when stdin is not a terminal.
		line, rerr := bufio.NewReader(os.Stdin).ReadString('\n')
		if rerr != nil {
			return "", rerr
		}
		return strings.TrimSpace(line), nil
	}
	fmt.Println()
	pw := strings.TrimSpace(string(b))
	if pw == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return pw, nil
}

func init() {
	loginCmd.Flags().String("email", "", "account email (prompted when omitted)")
	registerCmd.Flags().String("language", "en", "preferred language code")
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
