// authctl: CLI de operación (hash, detect, encrypt, user create, token, migrate).
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/procurauth/internal/config"
	"github.com/dropDatabas3/procurauth/internal/domain/repository"
	jwtx "github.com/dropDatabas3/procurauth/internal/jwt"
	"github.com/dropDatabas3/procurauth/internal/security/password"
	"github.com/dropDatabas3/procurauth/internal/security/secretbox"
	"github.com/dropDatabas3/procurauth/internal/store"
	"github.com/dropDatabas3/procurauth/internal/store/pg"

	_ "github.com/dropDatabas3/procurauth/internal/store/fs"
	_ "github.com/dropDatabas3/procurauth/internal/store/memory"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd(os.Stdin, os.Stdout).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

type cli struct {
	configPath string
	in         io.Reader
	out        io.Writer
}

func (c *cli) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readSecret usa el argumento si viene; si no, la primera línea de stdin.
func (c *cli) readSecret(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("password requerido (argumento o stdin)")
	}
	return line, nil
}

func (c *cli) hasher(cfg *config.Config) (*password.Hasher, error) {
	return password.NewHasher(password.HasherConfig{
		Pepper:        cfg.Security.Pepper,
		Params:        cfg.Argon2Params(),
		MaxConcurrent: cfg.Security.MaxConcurrentHashes,
	})
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	c := &cli{in: in, out: out}
	root := &cobra.Command{
		Use:           "authctl",
		Short:         "Herramientas de operación para el servicio de autenticación",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("CONFIG_PATH"), "ruta a config.yaml (opcional)")

	root.AddCommand(c.hashCmd(), c.detectCmd(), c.encryptCmd(), c.userCmd(), c.tokenCmd(), c.migrateCmd())
	return root
}

func (c *cli) hashCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "hash [password]",
		Short: "Hashea un password con el pepper y los costos configurados",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := password.ParseMode(mode)
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			plain, err := c.readSecret(args)
			if err != nil {
				return err
			}
			h, err := c.hasher(cfg)
			if err != nil {
				return err
			}
			out, err := h.Hash(cmd.Context(), plain, m)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(password.ModeArgon2), "argon2|none")
	return cmd
}

func (c *cli) detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <stored-hash>",
		Short: "Detecta el modo de un hash guardado",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(c.out, password.DetectMode(args[0]))
			return nil
		},
	}
}

// encryptCmd produce valores para storage.dsn_enc / smtp.pass_enc.
func (c *cli) encryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt [plaintext]",
		Short: "Cifra un secreto con SECRETBOX_MASTER_KEY",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			key, err := secretbox.ParseKey(cfg.Security.MasterKey)
			if err != nil {
				return err
			}
			plain, err := c.readSecret(args)
			if err != nil {
				return err
			}
			out, err := key.Seal(plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, out)
			return nil
		},
	}
}

func (c *cli) userCmd() *cobra.Command {
	userCmd := &cobra.Command{Use: "user", Short: "Gestión de usuarios"}

	var u repository.User
	var mode string
	create := &cobra.Command{
		Use:   "create [password]",
		Short: "Crea un usuario en el store configurado",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(u.Email) == "" && strings.TrimSpace(u.Username) == "" {
				return fmt.Errorf("--email o --username requerido")
			}
			m, err := password.ParseMode(mode)
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			plain, err := c.readSecret(args)
			if err != nil {
				return err
			}
			policy := password.Policy{MinLength: cfg.Security.MinPasswordLength}
			if ok, reasons := policy.Validate(plain); !ok {
				return fmt.Errorf("password rechazado: %s", strings.Join(reasons, ", "))
			}
			h, err := c.hasher(cfg)
			if err != nil {
				return err
			}
			hash, err := h.Hash(cmd.Context(), plain, m)
			if err != nil {
				return err
			}

			conn, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			nu := u
			nu.PasswordHash, nu.HashType = hash, string(m)
			created, err := conn.Users().Create(cmd.Context(), nu)
			if err != nil {
				if repository.IsConflict(err) {
					return fmt.Errorf("ya existe un usuario con ese email o username")
				}
				return err
			}
			return c.printJSON(map[string]any{
				"id": created.ID, "email": created.Email, "username": created.Username, "hashType": created.HashType,
			})
		},
	}
	create.Flags().StringVar(&u.Email, "email", "", "email")
	create.Flags().StringVar(&u.Username, "username", "", "username")
	create.Flags().StringVar(&u.Name, "name", "", "nombre visible")
	create.Flags().StringVar(&u.Role, "role", "", "rol (opcional)")
	create.Flags().StringVar(&mode, "hash-type", string(password.ModeArgon2), "argon2|none")

	userCmd.AddCommand(create)
	return userCmd
}

func (c *cli) tokenCmd() *cobra.Command {
	var id jwtx.Identity
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un par access/refresh para una identidad",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			svc := jwtx.NewService(jwtx.Config{
				Secret:     cfg.JWT.Secret,
				Issuer:     cfg.JWT.Issuer,
				AccessTTL:  cfg.AccessTTL(),
				RefreshTTL: cfg.RefreshTTL(),
			})
			pair, err := svc.CreateTokenPair(id)
			if err != nil {
				return err
			}
			return c.printJSON(map[string]any{
				"accessToken":  pair.AccessToken,
				"refreshToken": pair.RefreshToken,
				"tokenType":    "Bearer",
				"expiresIn":    pair.ExpiresIn,
			})
		},
	}
	cmd.Flags().StringVar(&id.UserID, "user-id", "", "userId (requerido)")
	cmd.Flags().StringVar(&id.Email, "email", "", "email")
	cmd.Flags().StringVar(&id.Name, "name", "", "nombre")
	cmd.Flags().StringVar(&id.Role, "role", "", "rol")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func (c *cli) migrateCmd() *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones postgres pendientes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if dsn == "" {
				dsn = cfg.Storage.DSN
			}
			if dsn == "" {
				return fmt.Errorf("DSN requerido (--dsn o STORAGE_DSN)")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			conn, err := store.Open(ctx, store.Config{Driver: "postgres", DSN: dsn, MaxConns: 2})
			if err != nil {
				return err
			}
			defer conn.Close()

			res, err := pg.NewMigrator(conn.(*pg.Conn).Pool()).Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "applied=%v skipped=%v duration=%s\n", res.Applied, res.Skipped, res.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "DSN postgres (default: storage.dsn)")
	return cmd
}

func openStore(ctx context.Context, cfg *config.Config) (store.Connection, error) {
	return store.Open(ctx, store.Config{
		Driver:      cfg.Storage.Driver,
		DSN:         cfg.Storage.DSN,
		FSRoot:      cfg.Storage.FSRoot,
		MaxConns:    cfg.Storage.MaxConns,
		AutoMigrate: cfg.Storage.AutoMigrate,
	})
}
