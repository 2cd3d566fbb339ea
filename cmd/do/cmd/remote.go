package cmd

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

const defaultServiceName = "tasktracker"

type remoteFlags struct {
	host    string
	port    string
	keyPath string
	service string
	dir     string
}

// RemoteCmd operates on a deployed instance over SSH.
func RemoteCmd() *cobra.Command {
	var flags remoteFlags

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Inspect and back up a deployed server over SSH",
	}

	cmd.PersistentFlags().StringVar(&flags.host, "host", os.Getenv("SSH_HOST"), "SSH host (user@host) or set SSH_HOST env")
	cmd.PersistentFlags().StringVar(&flags.port, "port", "22", "SSH port")
	cmd.PersistentFlags().StringVar(&flags.keyPath, "key", "", "path to SSH private key (default: ~/.ssh/id_ed25519)")
	cmd.PersistentFlags().StringVar(&flags.service, "service", defaultServiceName, "systemd unit name")
	cmd.PersistentFlags().StringVar(&flags.dir, "dir", "/opt/tasktracker", "install directory on the server")

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the systemd status of the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := flags.run(fmt.Sprintf("systemctl status %s --no-pager", shellQuote(flags.service)))
			fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	})

	var lines int
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Print recent server logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := flags.run(fmt.Sprintf("journalctl -u %s -n %d --no-pager", shellQuote(flags.service), lines))
			fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	logsCmd.Flags().IntVarP(&lines, "lines", "n", 100, "number of log lines")
	cmd.AddCommand(logsCmd)

	cmd.AddCommand(remoteBackupCmd(&flags))
	return cmd
}

func remoteBackupCmd(flags *remoteFlags) *cobra.Command {
	var ns namespaceFlags
	var output string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export one profile's data from the server to a local file",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote := fmt.Sprintf("cd %s && ./bin/do data export -o - --profile %s", shellQuote(flags.dir), shellQuote(ns.profile))
			if ns.user != "" {
				remote += " --user " + shellQuote(ns.user)
			}

			out, err := flags.run(remote)
			if err != nil {
				return err
			}

			if output == "" {
				output = "task-tracker-" + ns.namespace().Name() + ".json"
			}
			err = os.WriteFile(output, []byte(out), 0o600)
			if err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s from %s to %s\n", ns.namespace(), flags.host, output)
			return nil
		},
	}

	ns.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "local output file")
	return cmd
}

func (f *remoteFlags) run(command string) (string, error) {
	if f.host == "" {
		return "", fmt.Errorf("--host or SSH_HOST is required")
	}

	client, err := sshConnect(f.host, f.port, f.keyPath)
	if err != nil {
		return "", err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("new session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	err = session.Run(command)
	if err != nil {
		return stdout.String(), fmt.Errorf("%s: %w: %s", command, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func sshConnect(host, port, keyPath string) (*ssh.Client, error) {
	auth, err := authMethods(keyPath)
	if err != nil {
		return nil, err
	}

	user, addr := splitHost(host)
	config := &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	client, err := ssh.Dial("tcp", net.JoinHostPort(addr, port), config)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return client, nil
}

// authMethods prefers keys held by ssh-agent and falls back to a key file.
func authMethods(keyPath string) ([]ssh.AuthMethod, error) {
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		conn, err := net.Dial("unix", sock)
		if err == nil {
			agentClient := agent.NewClient(conn)
			keys, err := agentClient.List()
			if err == nil && len(keys) > 0 {
				return []ssh.AuthMethod{ssh.PublicKeysCallback(agentClient.Signers)}, nil
			}
			conn.Close()
		}
	}

	key, err := readKey(keyPath)
	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parse key (use ssh-add to load passphrase-protected keys): %w", err)
	}
	return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
}

func readKey(keyPath string) ([]byte, error) {
	if keyPath != "" {
		key, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("read key %s: %w", keyPath, err)
		}
		return key, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}

	names := []string{"id_ed25519", "id_rsa", "id_ecdsa"}
	for _, name := range names {
		key, err := os.ReadFile(filepath.Join(home, ".ssh", name))
		if err == nil {
			return key, nil
		}
	}
	return nil, fmt.Errorf("no SSH key found in ~/.ssh (tried: %v)", names)
}

// splitHost parses user@host. The user defaults to root.
func splitHost(host string) (string, string) {
	user, addr, ok := strings.Cut(host, "@")
	if !ok {
		return "root", host
	}
	return user, addr
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
