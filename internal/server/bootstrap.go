package server

import (
	"context"
	"fmt"

	artifactsDomain "github.com/pendergraft/zoppel/internal/artifacts/domain"
	"github.com/pendergraft/zoppel/internal/config"
	"github.com/pendergraft/zoppel/internal/observability/metrics"
	zoppelDomain "github.com/pendergraft/zoppel/internal/zoppel/domain"
)

// Start rebuilds the chain state from the transaction log. An empty log
// is bootstrapped with the genesis deploys.
func (s *Server) Start(ctx context.Context) error {
	n, err := s.rt.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restoring chain state: %w", err)
	}
	metrics.Restored(n)
	if n > 0 {
		head := s.rt.Head()
		s.logger.Info("chain state restored", "transactions", n, "block", head.BlockNumber)
		return nil
	}

	if err := s.bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrapping genesis: %w", err)
	}
	return nil
}

func (s *Server) bootstrap(ctx context.Context) error {
	deployer := s.genesis.DeployerAddress()

	if s.genesis.Zoppel.Deploy {
		receipt, err := s.zoppelSvc.Deploy(ctx, deployer)
		if err != nil {
			return fmt.Errorf("deploying zoppel: %w", err)
		}
		addr, _ := s.rt.ContractAddress(zoppelDomain.ContractName)
		s.logger.Info("zoppel deployed", "address", addr.Hex(), "tx", receipt.Hash.Hex())
	}

	ag := s.genesis.Artifacts
	if !ag.Deploy {
		return nil
	}
	receipt, err := s.artifactsSvc.Deploy(ctx, deployer, artifactsDomain.DeployArgs{
		Name:         ag.Name,
		Symbol:       ag.Symbol,
		BaseURI:      ag.BaseURI,
		Stipend:      ag.Stipend,
		Minters:      config.Addresses(ag.Minters),
		Marketplaces: config.Addresses(ag.Marketplaces),
	})
	if err != nil {
		return fmt.Errorf("deploying artifacts: %w", err)
	}
	addr, _ := s.rt.ContractAddress(artifactsDomain.ContractName)
	s.logger.Info("artifacts deployed", "address", addr.Hex(), "tx", receipt.Hash.Hex())

	funding := config.Amount(ag.Funding)
	if funding.IsZero() {
		return nil
	}
	if _, err := s.artifactsSvc.Fund(ctx, deployer, funding); err != nil {
		return fmt.Errorf("funding artifacts: %w", err)
	}
	s.logger.Info("artifacts funded", "amount", funding.Dec())
	return nil
}
