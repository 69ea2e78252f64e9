package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/threebody-chat/internal/config"
	chatmodel "github.com/zhouzirui/threebody-chat/internal/model/chat"
	"github.com/zhouzirui/threebody-chat/internal/model/persona"
	"github.com/zhouzirui/threebody-chat/internal/service/ai"
	"github.com/zhouzirui/threebody-chat/internal/service/chat"
	"github.com/zhouzirui/threebody-chat/internal/service/credential"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	personaID := flag.String("persona", persona.Default.ID(), "角色 ID 或名称，未知值回退到默认角色")
	message := flag.String("message", "", "发送给角色的消息，留空则只打印问候语")
	setKey := flag.String("set-key", "", "保存新的 Claude API Key 后退出")
	timeout := flag.Duration("timeout", 60*time.Second, "请求超时时间")

	flag.Parse()

	store, err := credential.Load(cfg.Credential.Path)
	if err != nil {
		log.Fatalf("读取 API Key 失败: %v", err)
	}

	if *setKey != "" {
		if err := store.Set(*setKey); err != nil {
			log.Fatalf("%s (%v)", credential.UserMessage(err), err)
		}
		log.Printf("API key saved! %s -> %s", store.Masked(), store.Path())
		return
	}

	p := persona.Resolve(*personaID)
	svc := chat.NewService(store, ai.NewClient(cfg.AI.BaseURL))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	session, err := svc.CreateSession(ctx, p.ID())
	if err != nil {
		log.Fatalf("创建会话失败: %v", err)
	}
	log.Printf("会话已创建: session=%s persona=%s key=%s", session.ID, p, store.Masked())
	printMessages(session.Messages)

	if *message == "" {
		return
	}

	reply, _, err := svc.Send(ctx, session.ID, *message)
	if err != nil {
		fmt.Fprintln(os.Stderr, chat.UserMessage(err))
		if kind := ai.KindOf(err); kind != "" {
			log.Printf("调用失败: kind=%s err=%v", kind, err)
		}
		if errors.Is(err, chat.ErrCredentialRequired) {
			log.Printf("请先运行 -set-key 保存 API Key (文件: %s)", store.Path())
		}
		os.Exit(1)
	}

	printMessages([]chatmodel.Message{chatmodel.UserMessage(*message), reply})
}

func printMessages(messages []chatmodel.Message) {
	for _, msg := range messages {
		fmt.Printf("[%s]\n", msg.Role)
		for _, para := range msg.Paragraphs() {
			fmt.Printf("  %s\n", para)
		}
		fmt.Println()
	}
}
