package msgraph

import (
	"context"
	"net/http"

	msgraphcore "github.com/microsoftgraph/msgraph-sdk-go-core"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/sites"
)

// ListRef addresses one SharePoint list
type ListRef struct {
	// SiteID is in "hostname,site-collection-id,web-id" form
	SiteID string
	// ListID is the list name or GUID
	ListID string
}

func (r ListRef) itemsPath() string {
	return "/sites/" + r.SiteID + "/lists/" + r.ListID + "/items"
}

func (c *Client) items(r ListRef) *sites.ItemListsItemItemsRequestBuilder {
	return c.sdk.Sites().BySiteId(r.SiteID).Lists().ByListId(r.ListID).Items()
}

// ListItems returns every item of the list, following continuation pages.
// expand is passed as $expand, e.g. "fields(select=Title)".
func (c *Client) ListItems(ctx context.Context, r ListRef, expand ...string) ([]ListItem, error) {
	path := r.itemsPath()
	first, err := c.items(r).Get(ctx, &sites.ItemListsItemItemsRequestBuilderGetRequestConfiguration{
		QueryParameters: &sites.ItemListsItemItemsRequestBuilderGetQueryParameters{Expand: expand},
	})
	if err != nil {
		return nil, wrapError(http.MethodGet, path, err)
	}

	it, err := msgraphcore.NewPageIterator[models.ListItemable](first, c.adapter, models.CreateListItemCollectionResponseFromDiscriminatorValue)
	if err != nil {
		return nil, wrapError(http.MethodGet, path, err)
	}

	items := []ListItem{}
	err = it.Iterate(ctx, func(m models.ListItemable) bool {
		if m != nil {
			items = append(items, listItemFromModel(m))
		}
		return true
	})
	if err != nil {
		return nil, wrapError(http.MethodGet, path, err)
	}
	return items, nil
}

// GetListItem reads one item
func (c *Client) GetListItem(ctx context.Context, r ListRef, id string, expand ...string) (*ListItem, error) {
	m, err := c.items(r).ByListItemId(id).Get(ctx, &sites.ItemListsItemItemsListItemItemRequestBuilderGetRequestConfiguration{
		QueryParameters: &sites.ItemListsItemItemsListItemItemRequestBuilderGetQueryParameters{Expand: expand},
	})
	if err != nil {
		return nil, wrapError(http.MethodGet, r.itemsPath()+"/"+id, err)
	}
	if m == nil {
		return &ListItem{ID: id}, nil
	}
	item := listItemFromModel(m)
	return &item, nil
}

// CreateListItem adds an item with the given column values
func (c *Client) CreateListItem(ctx context.Context, r ListRef, fields FieldValueSet) (*ListItem, error) {
	body := models.NewListItem()
	body.SetFields(fieldsToModel(fields))

	m, err := c.items(r).Post(ctx, body, nil)
	if err != nil {
		return nil, wrapError(http.MethodPost, r.itemsPath(), err)
	}
	if m == nil {
		return &ListItem{}, nil
	}
	item := listItemFromModel(m)
	return &item, nil
}

// UpdateListItemFields patches the column values of an item. A nil value
// clears the column. The column values the server reports are returned.
func (c *Client) UpdateListItemFields(ctx context.Context, r ListRef, id string, fields FieldValueSet) (FieldValueSet, error) {
	m, err := c.items(r).ByListItemId(id).Fields().Patch(ctx, fieldsToModel(fields), nil)
	if err != nil {
		return nil, wrapError(http.MethodPatch, r.itemsPath()+"/"+id+"/fields", err)
	}
	return fieldsFromModel(m), nil
}

// DeleteListItem deletes an item
func (c *Client) DeleteListItem(ctx context.Context, r ListRef, id string) error {
	if err := c.items(r).ByListItemId(id).Delete(ctx, nil); err != nil {
		return wrapError(http.MethodDelete, r.itemsPath()+"/"+id, err)
	}
	return nil
}
