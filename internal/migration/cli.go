package migration

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
)

// CLI 迁移命令的终端输出层
type CLI struct {
	migrator *Migrator
	output   io.Writer
}

// NewCLI 创建 CLI
func NewCLI(migrator *Migrator) *CLI {
	return &CLI{
		migrator: migrator,
		output:   os.Stdout,
	}
}

// SetOutput 设置输出
func (c *CLI) SetOutput(w io.Writer) {
	c.output = w
}

// Run 执行子命令：up、down、version、status
func (c *CLI) Run(command string) error {
	switch command {
	case "up":
		return c.RunUp()
	case "down":
		return c.RunDown()
	case "version":
		return c.RunVersion()
	case "status":
		return c.RunStatus()
	default:
		return fmt.Errorf("unknown migrate command %q (want up, down, version or status)", command)
	}
}

// RunUp 应用全部迁移
func (c *CLI) RunUp() error {
	fmt.Fprintln(c.output, "Running migrations...")
	if err := c.migrator.Up(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return c.printVersion("Migrations complete.")
}

// RunDown 回滚最近一次迁移
func (c *CLI) RunDown() error {
	fmt.Fprintln(c.output, "Rolling back last migration...")
	if err := c.migrator.Down(); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return c.printVersion("Rollback complete.")
}

// RunVersion 输出当前版本
func (c *CLI) RunVersion() error {
	version, dirty, err := c.migrator.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		fmt.Fprintln(c.output, "No migrations applied yet.")
		return nil
	}
	fmt.Fprintf(c.output, "Current version: %d", version)
	if dirty {
		fmt.Fprint(c.output, " (dirty)")
	}
	fmt.Fprintln(c.output)
	return nil
}

// RunStatus 输出每个迁移的状态
func (c *CLI) RunStatus() error {
	statuses, err := c.migrator.Status()
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	w := tabwriter.NewWriter(c.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tSTATUS")
	for _, s := range statuses {
		status := "Pending"
		if s.Applied {
			status = "Applied"
		}
		if s.Dirty {
			status = "Dirty"
		}
		fmt.Fprintf(w, "%06d\t%s\t%s\n", s.Version, s.Name, status)
	}
	return w.Flush()
}

func (c *CLI) printVersion(prefix string) error {
	info, err := c.migrator.Info()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.output, "%s Current version: %d\n", prefix, info.CurrentVersion)
	return nil
}
