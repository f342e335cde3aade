package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/pastevault/pkg/configs"
	mq "github.com/yeisme/pastevault/pkg/internal/storage/mq"
	"github.com/yeisme/pastevault/pkg/queue"
)

var (
	tailTopics []string

	mqCmd = &cobra.Command{Use: "mq", Short: "event bus commands"}

	mqTypesCmd = &cobra.Command{
		Use:     "types",
		Aliases: []string{"ls"},
		Short:   "list the mq backends compiled into this binary",
		Run: func(cmd *cobra.Command, args []string) {
			names := make([]string, 0)
			for _, t := range mq.GetRegisteredMQTypes() {
				names = append(names, string(t))
			}

			printList(cmd, "mq backends", names)
		},
	}

	// 订阅粘贴事件并逐行输出 JSON，Ctrl-C 退出.
	mqTailCmd = &cobra.Command{
		Use:   "tail",
		Short: "print paste lifecycle events as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := mq.New(ctx, &configs.GetConfig().MQ, false)
			if err != nil {
				return err
			}
			defer client.Close()

			out := make(chan *message.Message)

			for _, topic := range tailTopics {
				ch, err := client.Subscribe(ctx, topic)
				if err != nil {
					return fmt.Errorf("subscribe %s: %w", topic, err)
				}

				go func() {
					for msg := range ch {
						select {
						case out <- msg:
						case <-ctx.Done():
							return
						}
					}
				}()
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case msg := <-out:
					printEvent(cmd, msg)
				}
			}
		},
	}
)

func printEvent(cmd *cobra.Command, msg *message.Message) {
	defer msg.Ack()

	env, err := queue.ParsePaste(msg)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "skip message %s: %v\n", msg.UUID, err)
		return
	}

	b, err := sonic.Marshal(env)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "encode event %s: %v\n", msg.UUID, err)
		return
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

func registerMQCommands() {
	mqTailCmd.Flags().StringSliceVar(&tailTopics, "topic", queue.PasteTopics, "topics to subscribe")

	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(mqTypesCmd)
	mqCmd.AddCommand(mqTailCmd)
}
