package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"circuit"
	"circuit/batch"
	"circuit/debug"
	"circuit/load"
	"circuit/types"
)

func main() {
	in := flag.String("in", "", "测量数据文件")
	portName := flag.String("port", "notch", "默认端口: reflection | notch")
	formatName := flag.String("format", "reim", "默认列格式: reim | polar | complex")
	delay := flag.String("delay", "", "固定线缆延迟(秒), 为空时自动估计")
	isolation := flag.Float64("isolation", types.DefaultIsolation, "泄漏隔离度(dB)")
	fanoB := flag.Float64("fano-b", -1, "直接给定泄漏幅度 b, 负值时由隔离度换算")
	fmin := flag.Float64("fmin", 0, "频率窗口下限, 0 表示不限")
	fmax := flag.Float64("fmax", 0, "频率窗口上限, 0 表示不限")
	maxIt := flag.Int("maxit", types.FitDelayMaxIterations, "延迟迭代次数上限")
	noErrors := flag.Bool("noerrors", false, "不计算参数误差")
	workers := flag.Int("workers", 0, "并发数, 0 时取 CPU 数")
	out := flag.String("out", "", "导出拟合结果文本")
	jsonOut := flag.String("json", "", "导出调试记录 JSON")
	htmlOut := flag.String("html", "", "导出曲线网页")
	pngOut := flag.String("png", "", "导出曲线图片")
	serve := flag.String("serve", "", "发布曲线网页的监听地址, 如 :8080")
	verbose := flag.Bool("v", false, "告警写入日志")
	flag.Parse()

	if *in == "" {
		log.Fatal("--in required")
	}
	port, err := types.ParsePort(*portName)
	if err != nil {
		log.Fatal(err)
	}
	format, err := load.ParseFormat(*formatName)
	if err != nil {
		log.Fatal(err)
	}
	circuits, err := circuit.Load(*in, port, format)
	if err != nil {
		log.Fatal(err)
	}

	opts := []func(cfg *types.Config){func(cfg *types.Config) {
		cfg.CalcErrors = !*noErrors
		cfg.Isolation = *isolation
		cfg.FitDelayMaxIterations = *maxIt
		if *fmin != 0 {
			cfg.FMin = *fmin
		}
		if *fmax != 0 {
			cfg.FMax = *fmax
		}
		if *fanoB >= 0 {
			cfg.SetFanoB(*fanoB)
		}
	}}
	if *delay != "" {
		v, err := strconv.ParseFloat(*delay, 64)
		if err != nil {
			log.Fatalf("Invalid delay: %v", err)
		}
		opts = append(opts, func(cfg *types.Config) { cfg.SetFixedDelay(v) })
	}

	jobs := batch.NewJobs(circuits)
	charts := make(map[string]*debug.Charts, len(jobs))
	runner := &batch.Runner{Workers: *workers, Options: opts}
	record := *jsonOut != "" || *htmlOut != "" || *pngOut != "" || *serve != ""
	for _, job := range jobs {
		if record {
			charts[job.ID] = &debug.Charts{}
		}
	}
	runner.Debug = func(job *batch.Job) types.Debug {
		if c, ok := charts[job.ID]; ok {
			return c
		}
		if *verbose {
			return &logDebug{}
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	results := runner.Run(ctx, jobs)

	failed := 0
	for i, res := range results {
		if res.Err != nil {
			failed++
			log.Println(res.Err)
			continue
		}
		summary(os.Stdout, res)
		if *out != "" {
			if err := circuit.Export(indexed(*out, i, len(results)), res.Result); err != nil {
				log.Println(err)
			}
		}
		c, ok := charts[res.ID]
		if !ok {
			continue
		}
		if *jsonOut != "" {
			writeFile(indexed(*jsonOut, i, len(results)), c.Record.Render)
		}
		if *htmlOut != "" {
			writeFile(indexed(*htmlOut, i, len(results)), c.Render)
		}
		if *pngOut != "" {
			p := &debug.Plot{Record: c.Record}
			writeFile(indexed(*pngOut, i, len(results)), p.Render)
		}
	}

	if *serve != "" {
		mux := http.NewServeMux()
		for i, res := range results {
			if c, ok := charts[res.ID]; ok && res.Err == nil {
				mux.HandleFunc(fmt.Sprintf("/%d", i), c.Handler)
				if i == 0 {
					mux.HandleFunc("/", c.Handler)
				}
			}
		}
		log.Printf("Serving charts on %s", *serve)
		go func() {
			if err := http.ListenAndServe(*serve, mux); err != nil {
				log.Fatal(err)
			}
		}()
		<-ctx.Done()
		log.Println("Shutting down...")
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// summary 输出结果表
func summary(w io.Writer, res *batch.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", res.Name, res.Result.Port)
	m := res.Result.Map()
	for _, key := range types.Keys {
		if v, ok := m[key]; ok {
			fmt.Fprintf(tw, "  %s\t%.6g\n", key, v)
		}
	}
	for _, warning := range res.Result.Warnings {
		fmt.Fprintf(tw, "  warning\t%s\n", warning)
	}
	tw.Flush()
}

// indexed 多个数据块时在扩展名前加序号
func indexed(name string, i, n int) string {
	if n <= 1 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), i, ext)
}

func writeFile(name string, render func(w io.Writer) error) {
	file, err := os.Create(name)
	if err != nil {
		log.Println(err)
		return
	}
	defer file.Close()
	if err := render(file); err != nil {
		log.Println(err)
	}
}

// logDebug 告警写入日志
type logDebug struct{}

func (logDebug) Init(trace *types.Trace)  {}
func (logDebug) IsDebug() bool            { return true }
func (logDebug) SetDebug(is bool)         {}
func (logDebug) Update(res *types.Result) {}
func (logDebug) Render(w io.Writer) error { return nil }
func (logDebug) Error(err error)          { log.Println(err) }
