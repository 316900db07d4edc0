package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/kendall-kelly/edu-brokerage-api/logger"
	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/utils"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Contract lookup sources
const (
	ContractSourceOrder   = "order"
	ContractSourceClient  = "client"
	ContractSourceStorage = "storage"
	ContractSourceNone    = "none"
)

const (
	contractsRoot     = "contracts"
	clientsFolder     = "clients"
	clientFolderChars = 8
)

// ContractService stores signed contracts and resolves them for an order
type ContractService struct {
	db   *gorm.DB
	docs DocumentService
}

// NewContractService creates a contract service
func NewContractService(db *gorm.DB, docs DocumentService) *ContractService {
	return &ContractService{db: db, docs: docs}
}

// ClientFolder is the storage folder of a client's contracts, keyed by the
// numeric client id
func ClientFolder(clientID uint) string {
	return path.Join(clientsFolder, strconv.FormatUint(uint64(clientID), 10))
}

// LegacyClientFolder is the folder older uploads used: the first eight
// characters of the sanitized external id. Several clients can share it.
func LegacyClientFolder(externalID string) string {
	folder := utils.SanitizeSegment(externalID)
	if len(folder) > clientFolderChars {
		folder = folder[:clientFolderChars]
	}
	return folder
}

// Upload stores contract1 and/or contract2 for client. Without an order the
// rows stay order-less until the client's next order links them.
func (s *ContractService) Upload(ctx context.Context, client *models.User, orderID *uint, files map[string]*multipart.FileHeader) ([]models.Contract, error) {
	kinds := make([]string, 0, 2)
	for _, kind := range []string{models.ContractPrimary, models.ContractSecondary} {
		if fh := files[kind]; fh != nil {
			if err := utils.ValidateDocumentFile(fh); err != nil {
				return nil, err
			}
			kinds = append(kinds, kind)
		}
	}
	if len(kinds) == 0 {
		return nil, workflow.Validation("NO_FILE", "Upload contract1 and/or contract2")
	}

	segment := "order-pending-" + uuid.NewString()
	if orderID != nil {
		order, err := loadOrder(s.db.WithContext(ctx), *orderID)
		if err != nil {
			return nil, err
		}
		if order.ClientID != client.ID {
			return nil, workflow.ErrForbidden
		}
		segment = fmt.Sprintf("order-%d", order.ID)
	}
	folder := path.Join(contractsRoot, ClientFolder(client.ID), segment)

	var stored []*StoredFile
	cleanup := func() {
		for _, f := range stored {
			if err := s.docs.Delete(ctx, f.Key); err != nil {
				logger.FromContext(ctx).Warn("Failed to delete orphaned contract", zap.String("key", f.Key), zap.Error(err))
			}
		}
	}

	contracts := make([]models.Contract, 0, len(kinds))
	for _, kind := range kinds {
		fh := files[kind]
		key := path.Join(folder, kind+"_"+utils.SanitizeFileName(fh.Filename))
		f, err := s.docs.Upload(ctx, key, fh)
		if err != nil {
			cleanup()
			return nil, &StorageError{Op: "upload contract", Err: err}
		}
		stored = append(stored, f)
		contracts = append(contracts, models.Contract{
			OrderID:  orderID,
			ClientID: client.ID,
			Kind:     kind,
			FileName: f.FileName,
			S3Key:    f.Key,
		})
	}

	if err := s.db.WithContext(ctx).Create(&contracts).Error; err != nil {
		cleanup()
		return nil, err
	}

	s.sign(ctx, contracts)
	return contracts, nil
}

// ContractLookup is the result of Lookup
type ContractLookup struct {
	Contracts []models.Contract `json:"contracts"`
	Order     *models.Order     `json:"order"`
	Source    string            `json:"source"`
}

// Lookup resolves the contracts of an order: rows linked to the order, then
// order-less rows of the client, then a listing of the client's storage
// folder for history that predates contract rows.
func (s *ContractService) Lookup(ctx context.Context, caller workflow.Caller, orderID uint) (*ContractLookup, error) {
	db := s.db.WithContext(ctx)
	order, err := loadOrderDetail(db, orderID)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(caller, order.Ref(), workflow.ActionViewContracts); err != nil {
		return nil, err
	}

	result := &ContractLookup{Order: order, Contracts: []models.Contract{}, Source: ContractSourceNone}

	var rows []models.Contract
	if err := db.Where("order_id = ?", order.ID).Order("kind, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		s.sign(ctx, rows)
		result.Contracts, result.Source = rows, ContractSourceOrder
		return result, nil
	}

	if err := db.Where("client_id = ? AND order_id IS NULL", order.ClientID).Order("kind, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		s.sign(ctx, rows)
		result.Contracts, result.Source = rows, ContractSourceClient
		return result, nil
	}

	listed, err := s.fromStorage(ctx, order)
	if err != nil {
		return nil, err
	}
	if len(listed) > 0 {
		result.Contracts, result.Source = listed, ContractSourceStorage
	}
	return result, nil
}

// fromStorage lists the client's folder and the legacy shared folder, and
// pairs files by the contract1/contract2 markers in their names. In the
// legacy folder only order-<id> folders of this client's orders count. A
// folder named after this order wins over the others.
func (s *ContractService) fromStorage(ctx context.Context, order *models.Order) ([]models.Contract, error) {
	groups := map[string][]string{}
	own := path.Join(contractsRoot, ClientFolder(order.ClientID)) + "/"
	if err := s.listFolders(ctx, own, groups, nil); err != nil {
		return nil, err
	}

	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.Order{}).Where("client_id = ?", order.ClientID).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	owned := make(map[string]bool, len(ids))
	for _, id := range ids {
		owned[fmt.Sprintf("order-%d", id)] = true
	}
	legacy := path.Join(contractsRoot, LegacyClientFolder(order.Client.ExternalID)) + "/"
	if err := s.listFolders(ctx, legacy, groups, owned); err != nil {
		return nil, err
	}

	segment := fmt.Sprintf("order-%d", order.ID)
	var folders, matching []string
	for folder := range groups {
		folders = append(folders, folder)
		if path.Base(folder) == segment {
			matching = append(matching, folder)
		}
	}
	if len(matching) > 0 {
		folders = matching
	}
	sort.Strings(folders)

	var contracts []models.Contract
	for _, folder := range folders {
		files := groups[folder]
		sort.Strings(files)
		for _, kind := range []string{models.ContractPrimary, models.ContractSecondary} {
			for _, key := range files {
				if !strings.Contains(path.Base(key), kind) {
					continue
				}
				contracts = append(contracts, models.Contract{
					ClientID: order.ClientID,
					Kind:     kind,
					FileName: path.Base(key),
					S3Key:    key,
				})
				break
			}
		}
	}

	s.sign(ctx, contracts)
	return contracts, nil
}

// listFolders groups the keys directly under prefix/order-*/ by folder.
// When allowed is set, only the folder names it contains are kept.
func (s *ContractService) listFolders(ctx context.Context, prefix string, groups map[string][]string, allowed map[string]bool) error {
	keys, err := s.docs.List(ctx, prefix)
	if err != nil {
		return &StorageError{Op: "list contracts", Err: err}
	}

	for _, key := range keys {
		parts := strings.Split(strings.TrimPrefix(key, prefix), "/")
		if len(parts) != 2 || !strings.HasPrefix(parts[0], "order-") || parts[1] == "" {
			continue
		}
		if allowed != nil && !allowed[parts[0]] {
			continue
		}
		folder := prefix + parts[0]
		groups[folder] = append(groups[folder], key)
	}
	return nil
}

// sign fills the URL of every contract. A contract that cannot be signed
// keeps an empty URL and is logged.
func (s *ContractService) sign(ctx context.Context, contracts []models.Contract) {
	for i := range contracts {
		url, err := s.docs.URL(ctx, contracts[i].S3Key)
		if err != nil {
			logger.FromContext(ctx).Warn("Failed to sign contract url", zap.String("key", contracts[i].S3Key), zap.Error(err))
			continue
		}
		contracts[i].URL = url
	}
}
