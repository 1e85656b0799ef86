// adduser 在命令行创建用户，不经过注册接口
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"expensetracker/config"
	"expensetracker/database"
	"expensetracker/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "用户名")
	email := fs.String("email", "", "邮箱")
	passwordFlag := fs.String("password", "", "密码（可选，省略时交互输入）")
	currency := fs.String("currency", models.DefaultCurrency, "币种")
	dbPath := fs.String("db", "", "SQLite 数据库文件路径，为空时使用服务配置中的数据库")
	configPath := fs.String("config", "", "外部配置文件路径（可选）")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" || *email == "" {
		fmt.Fprintln(stdout, "用法: adduser -user <用户名> -email <邮箱> [-password <密码>] [-db <路径>]")
		fs.PrintDefaults()
		return fmt.Errorf("缺少必填参数: user, email")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("读取密码失败: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if len(strings.TrimSpace(password)) < 6 {
		return fmt.Errorf("密码至少 6 位")
	}

	cfg, err := loadConfig(*dbPath, *configPath)
	if err != nil {
		return err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	addr := strings.ToLower(strings.TrimSpace(*email))
	var count int64
	if err := db.Model(&models.User{}).Where("username = ? OR email = ?", *username, addr).Count(&count).Error; err != nil {
		return fmt.Errorf("查询用户失败: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("用户 %s 已存在", *username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("密码加密失败: %w", err)
	}

	user := models.User{
		Username:      *username,
		Email:         addr,
		Password:      string(hash),
		Currency:      strings.ToUpper(*currency),
		MonthlyBudget: decimal.Zero,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("创建用户失败: %w", err)
	}

	fmt.Fprintf(stdout, "用户 %s 创建成功，ID %d\n", user.Username, user.ID)
	return nil
}

// loadConfig 指定 -db 时直接使用 SQLite 文件，否则读取服务配置
func loadConfig(dbPath, configPath string) (*config.Config, error) {
	if dbPath != "" {
		return &config.Config{
			Server:   config.ServerConfig{Mode: "release"},
			Database: config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: dbPath},
		}, nil
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	cfg.Server.Mode = "release"
	return cfg, nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// 非终端输入（管道、测试）
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
