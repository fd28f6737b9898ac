package database

import (
	"sync"

	"gorm.io/gorm"
)

// Pool 进程级连接池：首次 Get 时建立，之后复用同一个结果（包括失败）
type Pool struct {
	opts Opts
	open func(Opts) (*gorm.DB, error)

	once sync.Once
	db   *gorm.DB
	err  error
}

func NewPool(o Opts) *Pool { return &Pool{opts: o, open: NewGorm} }

func (p *Pool) Get() (*gorm.DB, error) {
	p.once.Do(func() {
		p.db, p.err = p.open(p.opts)
	})
	return p.db, p.err
}

// Close 关闭底层 sql.DB；未初始化时什么都不做
func (p *Pool) Close() error {
	if p.db == nil {
		return nil
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
