package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/iWorld-y/propai/internal/auth"
	"github.com/iWorld-y/propai/internal/batch"
	"github.com/iWorld-y/propai/internal/bootstrap"
	"github.com/iWorld-y/propai/internal/config"
	"github.com/iWorld-y/propai/internal/logger"
	"github.com/iWorld-y/propai/internal/model"
	"github.com/iWorld-y/propai/internal/sheet"
)

var (
	flagconf    = flag.String("conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
	input       = flag.String("input", "", "批量模式：待分析的 xlsx/csv 文件")
	output      = flag.String("output", "", "批量模式：导出文件，默认 PropAI_Bulk_Result.xlsx")
	address     = flag.String("address", "", "单次分析：地址")
	price       = flag.Float64("price", 0, "单次分析：价格（十亿越南盾）")
	area        = flag.Float64("area", 0, "单次分析：面积（m2）")
	kind        = flag.String("type", "", "单次分析：房产类型")
	description = flag.String("description", "", "单次分析：描述")
	issueToken  = flag.String("issue-token", "", "为指定 subject 签发 API 令牌（使用 server.jwt_key）后退出")
	tokenTTL    = flag.Duration("token-ttl", 30*24*time.Hour, "签发令牌的有效期")
)

func main() {
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(*flagconf)
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}

	// 2. 初始化日志
	if err = logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}

	if *issueToken != "" {
		tok, err := auth.Issue(cfg.Server.JWTKey, *issueToken, *tokenTTL)
		if err != nil {
			logger.Log.Fatalf("签发令牌失败: %v", err)
		}
		fmt.Println(tok)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// 3. 初始化分析器
	an, err := bootstrap.NewAnalyzer(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("分析器初始化失败: %v", err)
	}

	if *input == "" {
		if err := analyzeOne(ctx, an); err != nil {
			logger.Log.Fatalf("分析失败: %v", err)
		}
		return
	}
	if err := runBatch(ctx, an, batch.NewFixedPacer(cfg.Batch.Pacing)); err != nil {
		logger.Log.Fatalf("批量分析失败: %v", err)
	}
}

func analyzeOne(ctx context.Context, an batch.Analyzer) error {
	if *address == "" {
		return fmt.Errorf("either -input or -address is required")
	}
	in := model.PropertyInput{
		Address:     *address,
		Price:       *price,
		Area:        *area,
		Type:        *kind,
		Description: *description,
	}
	result, err := an.Analyze(ctx, in)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runBatch(ctx context.Context, an batch.Analyzer, pacer batch.Pacer) error {
	f, err := os.Open(*input)
	if err != nil {
		return err
	}
	sh, err := sheet.Read(*input, f)
	f.Close()
	if err != nil {
		return err
	}
	if len(sh.Records) == 0 {
		return fmt.Errorf("sheet has no data rows: %s", *input)
	}
	logger.Log.Infof("已读取 %s: %d 行", *input, len(sh.Records))

	p := &batch.Processor{
		Analyzer: an,
		Pacer:    pacer,
		OnUpdate: func(u batch.Update) {
			if u.Index < 0 {
				return
			}
			row := u.Rows[u.Index]
			switch row.Status {
			case batch.StatusCompleted:
				fmt.Printf("[%3d%%] 第 %d 行完成: %d 分\n", u.Progress.Percent, row.ID+1, row.Result.InvestmentScore)
			case batch.StatusError:
				fmt.Printf("[%3d%%] 第 %d 行失败: %s\n", u.Progress.Percent, row.ID+1, row.Err)
			}
		},
	}
	rows := p.Run(ctx, batch.NewRows(sh.Records))

	out := *output
	if out == "" {
		out = "PropAI_Bulk_Result.xlsx"
	}
	if err := writeExport(out, batch.Export(rows)); err != nil {
		return err
	}

	sum := batch.Summarize(rows)
	fmt.Printf("✅ 分析完毕: 成功 %d, 失败 %d, 未处理 %d, 平均评分 %.1f -> %s\n",
		sum.Completed, sum.Failed, sum.Pending, sum.AverageScore, out)
	return nil
}

func writeExport(path string, records []sheet.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return sheet.WriteCSV(f, records)
	}
	return sheet.WriteXLSX(f, sheet.ExportSheetName, records)
}
