// Package batch 多个谐振器测量并行拟合.
//
// 各测量之间没有共享状态, 单个拟合内部串行.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"circuit"
	"circuit/types"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Job 拟合任务
type Job struct {
	ID      string
	Circuit *circuit.Circuit
}

// Result 任务结果, 与输入顺序一致
type Result struct {
	ID     string
	Name   string
	Result *types.Result
	Err    error
}

// Runner 并行拟合
type Runner struct {
	Workers int                          // 并发数, <=0 时取 CPU 数
	Options []func(cfg *types.Config)    // 所有任务共用的配置
	Debug   func(job *Job) types.Debug   // 每个任务的调试接口, 可为空
	Done    func(index int, res *Result) // 单个任务完成回调, 可为空
	mu      sync.Mutex
}

// NewJobs 为测量分配任务 ID
func NewJobs(circuits []*circuit.Circuit) []*Job {
	jobs := make([]*Job, len(circuits))
	for i, c := range circuits {
		jobs[i] = &Job{ID: fmt.Sprintf("fit_%s", uuid.NewString()), Circuit: c}
	}
	return jobs
}

// Run 执行全部任务; ctx 取消后未开始的任务返回 ctx.Err()
func (r *Runner) Run(ctx context.Context, jobs []*Job) []*Result {
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(jobs))

	out := make([]*Result, len(jobs))
	index := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range index {
				out[i] = r.fit(ctx, jobs[i])
				if r.Done != nil {
					r.mu.Lock()
					r.Done(i, out[i])
					r.mu.Unlock()
				}
			}
		}()
	}
feed:
	for i := range jobs {
		select {
		case index <- i:
		case <-ctx.Done():
			for j := i; j < len(jobs); j++ {
				out[j] = &Result{ID: jobs[j].ID, Name: name(jobs[j]), Err: ctx.Err()}
			}
			break feed
		}
	}
	close(index)
	wg.Wait()
	return out
}

// fit 单个任务
func (r *Runner) fit(ctx context.Context, job *Job) (res *Result) {
	res = &Result{ID: job.ID, Name: name(job)}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	if job.Circuit == nil {
		res.Err = errors.Errorf("任务 %s 没有数据", job.ID)
		return res
	}
	defer func() {
		if p := recover(); p != nil {
			res.Err = errors.Errorf("任务 %s: %v", job.ID, p)
		}
	}()
	opts := r.Options
	if r.Debug != nil {
		if d := r.Debug(job); d != nil {
			opts = append(append([]func(cfg *types.Config){}, opts...), func(cfg *types.Config) {
				cfg.Debug = d
			})
		}
	}
	res.Result, res.Err = job.Circuit.AutoFit(opts...)
	if res.Err != nil {
		res.Err = errors.Wrapf(res.Err, "任务 %s", res.Name)
	}
	return res
}

func name(job *Job) string {
	if job.Circuit != nil && job.Circuit.Name != "" {
		return job.Circuit.Name
	}
	return job.ID
}
